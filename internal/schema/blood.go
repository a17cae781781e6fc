package schema

type StockStatus string

const (
	StockAvailable StockStatus = "Available"
	StockLow       StockStatus = "Low"
	StockCritical  StockStatus = "Critical"
)

// BloodGroups lists the groups in display order.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "O+", "O-", "AB+", "AB-"}

func IsBloodGroup(g string) bool {
	for _, b := range BloodGroups {
		if b == g {
			return true
		}
	}
	return false
}

// StockStatusFor is the derived status: >=10 Available, 5..9 Low, <5 Critical.
func StockStatusFor(units int) StockStatus {
	switch {
	case units >= 10:
		return StockAvailable
	case units >= 5:
		return StockLow
	default:
		return StockCritical
	}
}

// BloodStock is keyed by blood group.
type BloodStock struct {
	Group  string      `json:"group"`
	Units  int         `json:"units"`
	Status StockStatus `json:"status"`
	Timestamps
}

func (b BloodStock) RecordID() string { return b.Group }

// SetUnits clamps at zero and recomputes the status.
func (b *BloodStock) SetUnits(units int) {
	if units < 0 {
		units = 0
	}
	b.Units = units
	b.Status = StockStatusFor(units)
}

type DonationStatus string

const (
	DonationPending  DonationStatus = "Pending"
	DonationVerified DonationStatus = "Verified"
)

type Donation struct {
	ID        string         `json:"id"`
	DonorID   string         `json:"donor_id"`
	DonorName string         `json:"donor_name"`
	Group     string         `json:"group"`
	Status    DonationStatus `json:"status"`
	Timestamps
}

func (d Donation) RecordID() string { return d.ID }

const (
	RequestApproved     = "Approved"
	RequestPendingStock = "Pending Stock"
)

type BloodRequest struct {
	ID       string `json:"id"`
	DoctorID string `json:"doctor_id"`
	Group    string `json:"group"`
	Units    int    `json:"units"`
	Status   string `json:"status"`
	Timestamps
}

func (r BloodRequest) RecordID() string { return r.ID }
