package schema

// VaultFile is the metadata of one uploaded medical record.
type VaultFile struct {
	ID             string `json:"id"`
	PatientID      string `json:"patient_id"`
	Filename       string `json:"filename"`
	Category       string `json:"category"`
	ObjectKey      string `json:"object_key"`
	ContentType    string `json:"content_type"`
	Size           int64  `json:"size"`
	InsightStatus  string `json:"insight_status"`
	InsightSummary string `json:"insight_summary"`
	Timestamps
}

func (v VaultFile) RecordID() string { return v.ID }

// ChatMessage is a department chat question with an optional doctor reply.
type ChatMessage struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	SenderName  string `json:"sender_name"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	Message     string `json:"message"`
	Reply       string `json:"reply,omitempty"`
	ReplyAuthor string `json:"reply_author,omitempty"`
	Timestamps
}

func (c ChatMessage) RecordID() string { return c.ID }

type MoodEntry struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Score     int    `json:"score"`
	Note      string `json:"note,omitempty"`
	Timestamps
}

func (m MoodEntry) RecordID() string { return m.ID }

// Notification is an in-app message shown in the portal inbox.
type Notification struct {
	ID     string            `json:"id"`
	UserID string            `json:"user_id"`
	Kind   string            `json:"kind"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
	Read   bool              `json:"read"`
	Timestamps
}

func (n Notification) RecordID() string { return n.ID }
