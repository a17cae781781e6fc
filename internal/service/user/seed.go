package user

import "github.com/Alijeyrad/medtrack_backend/internal/schema"

// DemoAccount is a seeded login with a known password.
type DemoAccount struct {
	Role     string
	Email    string
	Password string
}

// DemoAccounts are printed by the seed command.
var DemoAccounts = []DemoAccount{
	{Role: "admin", Email: "admin@medtrack.com", Password: "admin123"},
	{Role: "doctor", Email: "doctor@medtrack.com", Password: "doctor123"},
	{Role: "patient", Email: "patient@medtrack.com", Password: "patient123"},
}

var seedAdmin = schema.Admin{ID: "admin", Name: "System Administrator"}

var seedPatient = schema.Patient{ID: "patient", Name: "John Doe", Age: 35, Gender: "Male"}

// seedDoctors is the directory. Only the first has a login; the others
// can be booked but not signed in as.
var seedDoctors = []schema.Doctor{
	{ID: "doctor", Name: "Dr. Sarah Johnson", Department: "General Medicine", Availability: "Mon-Fri, 9am-5pm"},
	{ID: "d1", Name: "Dr. Rajesh Koothrappali", Department: "Cardiology", Availability: "Mon-Fri, 9am-5pm"},
	{ID: "d2", Name: "Dr. Priya Sethi", Department: "Dermatology", Availability: "Mon-Sat, 10am-2pm"},
	{ID: "d3", Name: "Dr. Sanjay Gupta", Department: "General Medicine", Availability: "Tue-Sun, 8am-4pm"},
	{ID: "d4", Name: "Dr. Anjali Menon", Department: "Pediatrics", Availability: "Mon-Fri, 10am-6pm"},
	{ID: "d5", Name: "Dr. Sameer Khan", Department: "Orthopedics", Availability: "Wed-Sun, 9am-5pm"},
}
