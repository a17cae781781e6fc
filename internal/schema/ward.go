package schema

// Ward tracks bed occupancy for one hospital unit; keyed by name.
type Ward struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Occupied int    `json:"occupied"`
	Status   string `json:"status"`
	Timestamps
}

func (w Ward) RecordID() string { return w.Name }

func (w Ward) Available() int { return w.Total - w.Occupied }
