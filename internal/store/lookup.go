package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"studyportal/internal/backend"
	"studyportal/pkg/types"
)

// Lookups are the reference lists the academic step selects from.
type Lookups struct {
	Schools  []types.School
	Programs []types.AcademicProgram
	Courses  []types.CourseOfInterest
}

// Complete reports whether all three lists came back non-empty.
func (l Lookups) Complete() bool {
	return len(l.Schools) > 0 && len(l.Programs) > 0 && len(l.Courses) > 0
}

func (l Lookups) Program(id int) *types.AcademicProgram {
	for i := range l.Programs {
		if l.Programs[i].ID == id {
			return &l.Programs[i]
		}
	}
	return nil
}

// ResolveIDs fills the ids of an academic record the backend returned by
// display name. Ids already set are kept.
func (l Lookups) ResolveIDs(app *types.AcademicApplication) {
	if app == nil {
		return
	}

	if app.SchoolID == 0 {
		for _, s := range l.Schools {
			if s.Name == app.School {
				app.SchoolID = s.ID
				break
			}
		}
	}
	if app.AcademicProgramID == 0 {
		for _, p := range l.Programs {
			if p.Description == app.AcademicProgram {
				app.AcademicProgramID = p.ID
				break
			}
		}
	}
	if app.CourseOfInterestID == 0 {
		for _, c := range l.Courses {
			if c.Name == app.CourseOfInterest {
				app.CourseOfInterestID = c.ID
				break
			}
		}
	}
}

type LookupRepository struct {
	client *backend.Client
}

func NewLookupRepository(client *backend.Client) *LookupRepository {
	return &LookupRepository{client: client}
}

func (r *LookupRepository) Schools(ctx context.Context) ([]types.School, error) {
	var out []types.School
	if err := r.list(ctx, "School", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LookupRepository) Programs(ctx context.Context) ([]types.AcademicProgram, error) {
	var out []types.AcademicProgram
	if err := r.list(ctx, "AcademicProgram", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LookupRepository) Courses(ctx context.Context) ([]types.CourseOfInterest, error) {
	var out []types.CourseOfInterest
	if err := r.list(ctx, "CourseOfInterest", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LookupRepository) list(ctx context.Context, resource string, out any) error {
	err := r.client.Get(ctx, resource, nil, out)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("failed to fetch %s list: %w", resource, err)
	}
	return nil
}

// All fetches the three lists concurrently.
func (r *LookupRepository) All(ctx context.Context) (Lookups, error) {
	var l Lookups
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() (err error) {
		l.Schools, err = r.Schools(ctx)
		return err
	})
	eg.Go(func() (err error) {
		l.Programs, err = r.Programs(ctx)
		return err
	})
	eg.Go(func() (err error) {
		l.Courses, err = r.Courses(ctx)
		return err
	})

	if err := eg.Wait(); err != nil {
		return Lookups{}, err
	}
	return l, nil
}
