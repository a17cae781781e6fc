package assistant

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

// Input is what a classifier looks at: free text and, optionally, the name
// of an attached file.
type Input struct {
	Text     string
	Filename string
}

// Label is a classifier's verdict. Status and Confidence are empty for
// classifiers that do not grade their answer.
type Label struct {
	Name       string `json:"label"`
	Status     string `json:"status,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Summary    string `json:"summary"`
	Detail     string `json:"detail,omitempty"`
	Modality   string `json:"modality,omitempty"`
}

// Classifier turns an input into a label. The defaults are rule based.
type Classifier interface {
	Classify(ctx context.Context, in Input) (Label, error)
}

// Rand is the randomness the simulated classifiers draw from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// lockedRand makes a Rand safe for concurrent requests.
type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func newRand(r Rand) Rand {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &lockedRand{r: r}
}

// between returns a uniform int in [lo, hi].
func between(r Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

// ---------------------------------------------------------------------------
// ChatRules
// ---------------------------------------------------------------------------

type chatRule struct {
	label    string
	keywords []string
	reply    string
}

var chatRules = []chatRule{
	{"pain", []string{"headache", "pain"}, "I understand you're in pain. For headaches, try to rest in a quiet, dark room and stay hydrated. If the pain is severe, please book an appointment."},
	{"fever", []string{"fever", "hot"}, "A fever can be a sign of infection. Monitor your temperature. If it exceeds 102°F (39°C), consult a doctor immediately."},
	{"appointment", []string{"appointment", "book"}, "You can book an appointment by clicking 'Book Now' in the sidebar or menu."},
	{"thanks", []string{"thank"}, "You're welcome! I'm here to help."},
}

const chatFallback = "I'm still learning! Could you describe your symptoms in more detail? Or you can upload a report in the 'Report Analysis' tab."

// ChatRules answers the patient chat with the first matching keyword rule.
type ChatRules struct{}

func (ChatRules) Classify(_ context.Context, in Input) (Label, error) {
	msg := strings.ToLower(in.Text)
	for _, r := range chatRules {
		for _, k := range r.keywords {
			if strings.Contains(msg, k) {
				return Label{Name: r.label, Summary: r.reply}, nil
			}
		}
	}
	return Label{Name: "fallback", Summary: chatFallback}, nil
}

// ---------------------------------------------------------------------------
// SymptomMatcher
// ---------------------------------------------------------------------------

type condition struct {
	name     string
	keywords []string
}

// symptomTable is scored in order; the first condition with the highest
// score wins ties.
var symptomTable = []condition{
	{"Allergic Rhinitis", []string{"runny nose", "sneezing", "fatigue", "watery eyes"}},
	{"Arthritis", []string{"joint", "swelling", "stiff", "pain"}},
	{"Asthma", []string{"breath", "cough", "tightness", "wheez"}},
	{"Chickenpox", []string{"rash", "fever", "fatig", "itch", "blister"}},
	{"Common Cold", []string{"sneez", "runny", "sore throat", "cough", "congestion"}},
	{"COVID-19", []string{"fever", "cough", "taste", "smell", "fatigue", "breath"}},
	{"Dengue", []string{"high fever", "headache", "joint", "eye pain", "rash"}},
	{"GERD", []string{"heartburn", "chest pain", "nausea", "regurgitation", "reflux"}},
	{"Heart Attack", []string{"chest pain", "pressure", "breath", "arm", "neck", "sweat"}},
	{"Hepatitis A-E", []string{"jaundice", "fever", "vomit", "abdominal", "dark urine"}},
	{"Hypertension", []string{"headache", "dizz", "nosebleed", "vision"}},
	{"Malaria", []string{"fever", "shiver", "chill", "muscle", "sweat"}},
	{"Migraine", []string{"headache", "nausea", "light", "aura"}},
	{"Pneumonia", []string{"cough", "fever", "breath", "chill", "phlegm"}},
	{"Psoriasis", []string{"rash", "itch", "dry skin", "patch"}},
	{"Tuberculosis", []string{"cough", "fever", "sweat", "weight", "blood"}},
}

const genericCondition = "Viral Infection (Generic)"

var respiratory = map[string]bool{
	"Asthma":       true,
	"Pneumonia":    true,
	"Tuberculosis": true,
	"COVID-19":     true,
}

// SymptomMatcher scores free-text symptoms against the symptom table. An
// x-ray attachment raises confidence for respiratory conditions.
type SymptomMatcher struct {
	rnd Rand
}

func NewSymptomMatcher(r Rand) *SymptomMatcher { return &SymptomMatcher{rnd: newRand(r)} }

func (m *SymptomMatcher) Classify(_ context.Context, in Input) (Label, error) {
	text := strings.ToLower(in.Text)

	best, bestScore := genericCondition, 0
	for _, c := range symptomTable {
		score := 0
		for _, k := range c.keywords {
			if strings.Contains(text, k) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.name, score
		}
	}

	imageFactor := "No visual anomalies"
	boost := 0
	if in.Filename != "" && isXRay(in.Filename) {
		imageFactor = "Chest irregularities detected"
		if respiratory[best] {
			boost = 10
		}
	}

	confidence := min(99, between(m.rnd, 70, 90)+boost+bestScore*5)
	return Label{
		Name:       best,
		Confidence: confidence,
		Summary: fmt.Sprintf("Based on your symptoms and the file, the system detects a %d%% probability of %s. %s.",
			confidence, best, imageFactor),
		Detail: imageFactor,
	}, nil
}

func isXRay(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "xray") || strings.Contains(n, "x-ray")
}

// ---------------------------------------------------------------------------
// ReportAnalyzer
// ---------------------------------------------------------------------------

var reportInsights = []struct{ status, summary string }{
	{"Attention Needed", "Detected markers consistent with elevated blood pressure. Recommend monitoring sodium intake and scheduling a follow-up."},
	{"Normal", "All vital signs and indicators appear within normal ranges. No immediate action required."},
	{"Review Recommended", "Slight irregularities found in hemogram. A physician review is recommended to rule out anemia."},
}

// ReportAnalyzer produces the simulated insight stored with vault uploads.
type ReportAnalyzer struct {
	rnd Rand
}

func NewReportAnalyzer(r Rand) *ReportAnalyzer { return &ReportAnalyzer{rnd: newRand(r)} }

func (a *ReportAnalyzer) Classify(_ context.Context, in Input) (Label, error) {
	pick := reportInsights[a.rnd.IntN(len(reportInsights))]
	return Label{
		Name:    "report",
		Status:  pick.status,
		Summary: fmt.Sprintf("Simulated analysis of %s: %s", in.Filename, pick.summary),
	}, nil
}

// ---------------------------------------------------------------------------
// DoctorOpinion
// ---------------------------------------------------------------------------

var opinions = []string{
	"Patient history suggests high risk of Vitamin D deficiency. Recommend screening.",
	"Symptoms align with seasonal allergies. Prescribe antihistamines and monitor.",
	"No critical anomalies detected in recent logs. Proceed with standard checkup.",
}

// DoctorOpinion is the assisted summary shown to doctors on a patient page.
type DoctorOpinion struct {
	rnd Rand
}

func NewDoctorOpinion(r Rand) *DoctorOpinion { return &DoctorOpinion{rnd: newRand(r)} }

func (o *DoctorOpinion) Classify(_ context.Context, in Input) (Label, error) {
	l := Label{Name: "opinion", Summary: "Analysis: " + opinions[o.rnd.IntN(len(opinions))]}
	if in.Text != "" {
		l.Detail = in.Text
	}
	return l, nil
}

// ---------------------------------------------------------------------------
// Doctor diagnostics: imaging, signals, genomics, fractures
// ---------------------------------------------------------------------------

func nameHas(name string, words ...string) bool {
	n := strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(n, w) {
			return true
		}
	}
	return false
}

func graded(name string, confidence int, modality, detail string) Label {
	return Label{
		Name:       name,
		Confidence: confidence,
		Modality:   modality,
		Detail:     detail,
		Summary:    fmt.Sprintf("%s (%d%% confidence). %s", name, confidence, detail),
	}
}

// ImagingReader reads chest x-rays and brain MRIs by file name.
type ImagingReader struct {
	rnd Rand
}

func NewImagingReader(r Rand) *ImagingReader { return &ImagingReader{rnd: newRand(r)} }

func (c *ImagingReader) Classify(_ context.Context, in Input) (Label, error) {
	confidence := between(c.rnd, 85, 99)
	const modality = "Image Processing (CNN/Transfer Learning)"
	switch {
	case nameHas(in.Filename, "chest", "xray", "x-ray"):
		return graded("Pneumonia (Early Stage)", confidence, modality, "Opacity detected in lower left lobe."), nil
	case nameHas(in.Filename, "brain", "mri"):
		return graded("Glioblastoma (Tumor)", confidence, modality, "Abnormal mass detected in parietal lobe."), nil
	default:
		return graded("No Pathologies Detected", confidence, modality, "Structural integrity appears normal."), nil
	}
}

// irregularSignalLen is the trace length above which a recording reads as
// irregular.
const irregularSignalLen = 100

// SignalReader grades an ECG or EEG trace by its length.
type SignalReader struct {
	rnd Rand
}

func NewSignalReader(r Rand) *SignalReader { return &SignalReader{rnd: newRand(r)} }

func (c *SignalReader) Classify(_ context.Context, in Input) (Label, error) {
	confidence := between(c.rnd, 80, 95)
	const modality = "Signal Processing (Heuristic)"
	if len(strings.TrimSpace(in.Text)) > irregularSignalLen {
		return graded("Atrial Fibrillation", confidence, modality, "Irregular R-R intervals detected."), nil
	}
	return graded("Normal Sinus Rhythm", confidence, modality, "Waveform within normal parameters."), nil
}

// GenomicsScreen looks for known marker names in a sequence.
type GenomicsScreen struct {
	rnd Rand
}

func NewGenomicsScreen(r Rand) *GenomicsScreen { return &GenomicsScreen{rnd: newRand(r)} }

func (c *GenomicsScreen) Classify(_ context.Context, in Input) (Label, error) {
	confidence := between(c.rnd, 90, 99)
	const modality = "Genomic Sequencing"
	seq := strings.ToUpper(in.Text)
	switch {
	case strings.Contains(seq, "BRCA"), strings.Contains(seq, "GATTACA"):
		return graded("High Hereditary Risk (Breast Cancer)", confidence, modality, "Pathogenic variant found in BRCA1 gene."), nil
	case strings.Contains(seq, "CFTR"):
		return graded("Cystic Fibrosis Carrier", confidence, modality, "Delta F508 mutation detected."), nil
	default:
		return graded("No Known Genetic Markers Found", confidence, modality, "Sequence aligns with reference genome."), nil
	}
}

// FractureDetector flags bone images whose name marks a fracture.
type FractureDetector struct {
	rnd Rand
}

func NewFractureDetector(r Rand) *FractureDetector { return &FractureDetector{rnd: newRand(r)} }

func (c *FractureDetector) Classify(_ context.Context, in Input) (Label, error) {
	confidence := between(c.rnd, 88, 98)
	const modality = "Orthopedics (SVM Classifier)"
	if nameHas(in.Filename, "fracture", "broken") {
		return graded("Fracture Detected", confidence, modality, "Edge discontinuities detected in HOG feature map."), nil
	}
	return graded("No Fracture Detected", confidence, modality, "Texture analysis shows continuous bone density."), nil
}
