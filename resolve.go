package learnrec

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// maxAttempts bounds the number of invalid answers accepted before giving up.
const maxAttempts = 3

// Resolver asks the operator for the subject of a learning session, either
// among the enrolled subjects or as a new enrollment.
type Resolver struct {
	Registry Registry
	Prompter Prompter
}

// Resolve returns the subject to learn. A new subject is inserted into the
// registry before being returned.
func (r Resolver) Resolve(ctx context.Context) (Subject, error) {
	subjects, err := r.Registry.Subjects(ctx)
	if err != nil {
		return Subject{}, fmt.Errorf("could not list subjects: %w", err)
	}
	if len(subjects) > 0 {
		existing, err := r.Prompter.Confirm("Does the subject already exist?")
		if err != nil {
			return Subject{}, err
		}
		if existing {
			return r.pick(subjects)
		}
	}
	return r.enroll(ctx)
}

func (r Resolver) pick(subjects []Subject) (Subject, error) {
	byID := make(map[int]Subject, len(subjects))
	ids := make([]string, 0, len(subjects))
	for _, s := range subjects {
		byID[s.ID] = s
		ids = append(ids, s.String())
	}
	question := "Subject id [" + strings.Join(ids, ", ") + "]"

	for i := 0; i < maxAttempts; i++ {
		answer, err := r.Prompter.Ask(question, "")
		if err != nil {
			return Subject{}, err
		}
		id, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			continue
		}
		if s, ok := byID[id]; ok {
			return s, nil
		}
	}
	return Subject{}, fmt.Errorf("no enrolled subject selected: %w", ErrInvalidSubject)
}

func (r Resolver) enroll(ctx context.Context) (Subject, error) {
	for i := 0; i < maxAttempts; i++ {
		answer, err := r.Prompter.Ask("Name of the new subject", "")
		if err != nil {
			return Subject{}, err
		}
		name := strings.TrimSpace(answer)
		if name == "" {
			continue
		}
		exists, err := r.Registry.Exists(ctx, name)
		if err != nil {
			return Subject{}, fmt.Errorf("could not look up subject %q: %w", name, err)
		}
		if exists {
			continue
		}
		s, err := r.Registry.Insert(ctx, name)
		if err != nil {
			return Subject{}, fmt.Errorf("could not enroll subject %q: %w", name, err)
		}
		return s, nil
	}
	return Subject{}, fmt.Errorf("no subject name accepted: %w", ErrInvalidSubject)
}
