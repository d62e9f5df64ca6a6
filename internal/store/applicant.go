package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"studyportal/pkg/types"
)

// Applicant is everything the portal pages need about the signed-in student.
// PersonalInfo and Academic are nil when the matching step is not done yet.
type Applicant struct {
	PersonalInfo *types.PersonalInformation
	Academic     *types.AcademicApplication
	Status       *types.ApplicationStatus
	Lookups      Lookups
}

func (a *Applicant) PersonalInfoID() int {
	if a == nil || a.PersonalInfo == nil {
		return 0
	}
	return a.PersonalInfo.ID
}

type ApplicantRepository struct {
	personal     *PersonalInfoRepository
	academic     *AcademicRepository
	applications *ApplicationRepository
	lookups      *LookupRepository
}

func NewApplicantRepository(personal *PersonalInfoRepository, academic *AcademicRepository, applications *ApplicationRepository, lookups *LookupRepository) *ApplicantRepository {
	return &ApplicantRepository{
		personal:     personal,
		academic:     academic,
		applications: applications,
		lookups:      lookups,
	}
}

// Load gathers the applicant's records. The lookup lists (when requested)
// load alongside the personal-info chain; the status and academic fetches
// wait for the personal-info id. Lookup ids are mapped onto the academic
// record only after everything has joined.
func (r *ApplicantRepository) Load(ctx context.Context, userID string, withLookups bool) (*Applicant, error) {
	a := new(Applicant)
	eg, ctx := errgroup.WithContext(ctx)

	if withLookups {
		eg.Go(func() error {
			l, err := r.lookups.All(ctx)
			if err != nil {
				return err
			}
			a.Lookups = l
			return nil
		})
	}

	eg.Go(func() error {
		info, err := r.personal.ByUserID(ctx, userID)
		if errors.Is(err, ErrNoPersonalInfo) {
			return nil
		}
		if err != nil {
			return err
		}
		a.PersonalInfo = info

		return r.loadApplication(ctx, a, info.ID)
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("load applicant %s: %w", userID, err)
	}

	if a.PersonalInfo != nil && a.Academic != nil && a.Lookups.Complete() {
		a.Lookups.ResolveIDs(a.Academic)
	}

	return a, nil
}

func (r *ApplicantRepository) loadApplication(ctx context.Context, a *Applicant, personalInfoID int) error {
	var (
		state    *types.ApplicationState
		academic *types.AcademicApplication
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		state, err = r.applications.State(ctx, personalInfoID)
		return err
	})
	eg.Go(func() error {
		app, err := r.academic.ByPersonalInfoID(ctx, personalInfoID)
		if errors.Is(err, ErrNoAcademicRecord) {
			return nil
		}
		academic = app
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	a.Academic = academic
	switch {
	case state != nil && state.ApplicationStatus != nil:
		a.Status = state.ApplicationStatus
	case academic != nil:
		a.Status = academic.ApplicationStatus
	}

	return nil
}
