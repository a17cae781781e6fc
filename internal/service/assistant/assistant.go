// Package assistant answers the patient chat bot, the symptom checker and
// the doctor-side patient summary. Every answer comes from a Classifier so
// a model-backed implementation can replace the rule tables.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Alijeyrad/medtrack_backend/internal/store"
)

// Classifiers bundles one classifier per assistant surface.
type Classifiers struct {
	Chat     Classifier
	Symptoms Classifier
	Reports  Classifier
	Opinion  Classifier
	Imaging  Classifier
	Signal   Classifier
	Genomics Classifier
	Fracture Classifier
}

// DefaultClassifiers wires the rule-based implementations to one source of
// randomness. A nil r seeds a fresh generator.
func DefaultClassifiers(r Rand) Classifiers {
	shared := newRand(r)
	return Classifiers{
		Chat:     ChatRules{},
		Symptoms: &SymptomMatcher{rnd: shared},
		Reports:  &ReportAnalyzer{rnd: shared},
		Opinion:  &DoctorOpinion{rnd: shared},
		Imaging:  &ImagingReader{rnd: shared},
		Signal:   &SignalReader{rnd: shared},
		Genomics: &GenomicsScreen{rnd: shared},
		Fracture: &FractureDetector{rnd: shared},
	}
}

// Diagnostic modalities accepted by Diagnose.
const (
	ModalityImage    = "image"
	ModalitySignal   = "signal"
	ModalityGenomics = "genomics"
	ModalityFracture = "fracture"
)

type Service interface {
	Chat(ctx context.Context, message string) (Label, error)
	CheckSymptoms(ctx context.Context, symptoms, filename string) (Label, error)
	AnalyzeReport(ctx context.Context, filename string) (Label, error)
	PatientSummary(ctx context.Context, patientID string) (Label, error)
	Diagnose(ctx context.Context, req DiagnoseRequest) (Label, error)
}

// DiagnoseRequest is one doctor-side prediction. Filename drives the image
// and fracture readers, Signal holds the uploaded trace and Sequence the
// genomic sample.
type DiagnoseRequest struct {
	Modality string
	Filename string
	Signal   string
	Sequence string
}

type assistantService struct {
	store *store.Store
	c     Classifiers
}

func New(st *store.Store, c Classifiers) Service {
	return &assistantService{store: st, c: c}
}

func (s *assistantService) Chat(ctx context.Context, message string) (Label, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Label{}, ErrEmptyInput
	}
	return s.c.Chat.Classify(ctx, Input{Text: message})
}

func (s *assistantService) CheckSymptoms(ctx context.Context, symptoms, filename string) (Label, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" && filename == "" {
		return Label{}, ErrEmptyInput
	}
	return s.c.Symptoms.Classify(ctx, Input{Text: symptoms, Filename: filename})
}

func (s *assistantService) AnalyzeReport(ctx context.Context, filename string) (Label, error) {
	return s.c.Reports.Classify(ctx, Input{Filename: filename})
}

// PatientSummary feeds the patient's recent activity to the opinion
// classifier.
func (s *assistantService) PatientSummary(ctx context.Context, patientID string) (Label, error) {
	p, err := s.store.Patients.Get(ctx, patientID)
	if errors.Is(err, store.ErrNotFound) {
		return Label{}, ErrPatientNotFound
	}
	if err != nil {
		return Label{}, fmt.Errorf("patient summary: %w", err)
	}

	files, err := s.store.Vault.ListBy(ctx, store.ByPatientID, patientID)
	if err != nil {
		return Label{}, fmt.Errorf("patient summary: %w", err)
	}
	moods, err := s.store.Moods.ListBy(ctx, store.ByPatientID, patientID)
	if err != nil {
		return Label{}, fmt.Errorf("patient summary: %w", err)
	}

	ctxLine := fmt.Sprintf("%s: %d records on file, %d mood entries", p.Name, len(files), len(moods))
	return s.c.Opinion.Classify(ctx, Input{Text: ctxLine})
}

func (s *assistantService) Diagnose(ctx context.Context, req DiagnoseRequest) (Label, error) {
	var (
		c  Classifier
		in Input
	)
	switch req.Modality {
	case ModalityImage:
		c, in = s.c.Imaging, Input{Filename: req.Filename}
	case ModalityFracture:
		c, in = s.c.Fracture, Input{Filename: req.Filename}
	case ModalitySignal:
		c, in = s.c.Signal, Input{Text: req.Signal, Filename: req.Filename}
	case ModalityGenomics:
		c, in = s.c.Genomics, Input{Text: strings.TrimSpace(req.Sequence)}
	default:
		return Label{}, fmt.Errorf("%w: %q", ErrUnknownModality, req.Modality)
	}
	if in.Filename == "" && strings.TrimSpace(in.Text) == "" {
		return Label{}, ErrEmptyInput
	}
	return c.Classify(ctx, in)
}
