// Package doctors holds the static specialist directory and its filtering.
package doctors

// Doctor is one directory entry. The directory is reference data: loaded at
// startup, never created or destroyed at runtime.
type Doctor struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Location  string  `json:"location"`
	Hospital  string  `json:"hospital"`
	Rating    float64 `json:"rating"`
	Reviews   int     `json:"reviews"`
	Available bool    `json:"available"`
	Image     string  `json:"image"`
}

// Seed returns the built-in specialist directory.
func Seed() []Doctor {
	return []Doctor{
		{ID: "1", Name: "Dr. Ashok Seth", Specialty: "Interventional Cardiologist", Location: "New Delhi", Hospital: "Fortis Escorts Heart Institute", Rating: 4.9, Reviews: 420, Available: true, Image: "https://images.unsplash.com/photo-1622253692010-333f2da6031d?w=500"},
		{ID: "2", Name: "Dr. Subash Chandra", Specialty: "Interventional Cardiologist", Location: "Delhi", Hospital: "BLK-Max Super Speciality Hospital", Rating: 4.8, Reviews: 390, Available: true, Image: "https://images.unsplash.com/photo-1612363584451-cd060fb62018?w=500"},
		{ID: "3", Name: "Dr. Balbir Singh", Specialty: "Cardiologist", Location: "Delhi", Hospital: "Indraprastha Apollo Hospital", Rating: 4.8, Reviews: 370, Available: true, Image: "https://images.unsplash.com/photo-1637059824899-a441006a6875?w=500"},
		{ID: "4", Name: "Dr. K K Saxena", Specialty: "Interventional Cardiologist", Location: "Delhi NCR", Hospital: "Fortis Hospital Noida", Rating: 4.7, Reviews: 350, Available: true, Image: "https://plus.unsplash.com/premium_photo-1677165654854-a62b469ef44f?w=500"},
		{ID: "5", Name: "Dr. Nidhi Rawal", Specialty: "Pediatric Cardiologist", Location: "Delhi", Hospital: "PGIMER, Delhi", Rating: 4.9, Reviews: 320, Available: true, Image: "https://plus.unsplash.com/premium_photo-1682089872205-dbbae3e4ba32?w=500"},
		{ID: "6", Name: "Dr. Mahesh Ghogare", Specialty: "Interventional Cardiologist", Location: "Mumbai", Hospital: "Apollo Hospital, Navi Mumbai", Rating: 4.8, Reviews: 310, Available: true, Image: "https://plus.unsplash.com/premium_photo-1661699733041-a4e02693adf5?w=500"},
		{ID: "7", Name: "Dr. Devi Prasad Shetty", Specialty: "Cardiac Surgeon", Location: "Bangalore", Hospital: "Narayana Health", Rating: 4.9, Reviews: 500, Available: true, Image: "https://media.istockphoto.com/id/1447908696/photo/medical-concept.webp?w=500"},
		{ID: "8", Name: "Dr. Ramakanta Panda", Specialty: "Cardiac Surgeon", Location: "Mumbai", Hospital: "Asian Heart Institute", Rating: 4.8, Reviews: 410, Available: true, Image: "https://plus.unsplash.com/premium_photo-1661745711599-7f3f3544b579?w=500"},
		{ID: "9", Name: "Dr. S. Radhakrishnan", Specialty: "Cardiologist", Location: "Chennai", Hospital: "Apollo Hospitals", Rating: 4.8, Reviews: 190, Available: true, Image: "https://images.unsplash.com/photo-1678940805950-73f2127f9d4e?w=500"},
		{ID: "10", Name: "Dr. Simran Jain", Specialty: "Pediatric Cardiologist", Location: "Indore", Hospital: "CARE CHL Hospitals", Rating: 4.8, Reviews: 160, Available: true, Image: "https://media.istockphoto.com/id/1292859438/photo/portrait-female-doctor.webp?w=500"},
	}
}

// Filter narrows records by specialty and location. A blank predicate
// matches everything; both predicates are ANDed. Order is preserved.
func Filter(records []Doctor, specialty, location string) []Doctor {
	out := make([]Doctor, 0, len(records))
	for _, d := range records {
		if specialty != "" && d.Specialty != specialty {
			continue
		}
		if location != "" && d.Location != location {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Specialties returns the unique specialties in first-seen order.
func Specialties(records []Doctor) []string {
	return uniqueBy(records, func(d Doctor) string { return d.Specialty })
}

// Locations returns the unique locations in first-seen order.
func Locations(records []Doctor) []string {
	return uniqueBy(records, func(d Doctor) string { return d.Location })
}

func uniqueBy(records []Doctor, key func(Doctor) string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, d := range records {
		k := key(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
