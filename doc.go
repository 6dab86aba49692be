/*
Package learnrec drives a live video face enrollment and recognition workflow.

Every frame of the video source goes through a face detector. In Scan mode the
detected faces are classified by the recognizer and labeled with the name of
the matching subject, provided the classification confidence passes the
validity threshold. In Learn mode the faces are cropped and buffered as samples
of the active subject; the buffer is submitted to the recognizer once it holds
more samples than the flush threshold.

The mode machine is a pure function over a State value: every event returns
the next state and the side effects to run. The Controller reads the frames,
feeds the events to the machine and executes the resulting commands.

	ctrl, err := learnrec.NewController(learnrec.Collaborators{
		Source:     camera,
		Detector:   detector,
		Recognizer: recognizer,
		Registry:   registry,
		Surface:    window,
		Prompter:   console,
	}, learnrec.Options{
		Policy: learnrec.DefaultPolicy(),
		Gate:   learnrec.DefaultGate(),
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := ctrl.Run(ctx); err != nil {
		log.Fatal(err)
	}

Pressing 'l' starts learning a subject, 's' or space goes back to scanning and
'q' saves the recognizer and quits.
*/
package learnrec
