package server

import (
	"net/http"

	"studyportal/pkg/types"
)

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	data := &types.HomePageData{
		BasePageData: types.BasePageData{Title: "Study Abroad"},
		Services:     services(),
		Steps:        getSteps(),
	}

	s.render(w, r, "page.home", data)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func services() []types.ServiceData {
	return []types.ServiceData{
		{Name: "Admission Processing", Description: "We prepare and file your application with partner universities.", Icon: "graduation-cap"},
		{Name: "Visa Guidance", Description: "Document checklists and interview preparation for your student visa.", Icon: "passport"},
		{Name: "Scholarship Search", Description: "Matching you with funding that fits your program and profile.", Icon: "award"},
		{Name: "Pre-departure Support", Description: "Accommodation, travel and arrival briefings before you fly.", Icon: "plane"},
	}
}

func getSteps() []types.StepData {
	return []types.StepData{
		{
			Number:      1,
			Title:       "Create your account",
			Description: "Register with your email and sign in to the student portal.",
		},
		{
			Number:      2,
			Title:       "Complete your application",
			Description: "Fill in your personal and academic details and upload your documents.",
		},
		{
			Number:      3,
			Title:       "Track your review",
			Description: "Follow your application status and read messages from our admissions team.",
		},
	}
}
