package models

// CastMember represents a cast member in credits
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember represents a crew member in credits
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Job        string `json:"job"`
}

// Credits represents cast and crew information
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// DirectorName returns the first crew member credited as Director.
func (c *Credits) DirectorName() (string, bool) {
	if c == nil {
		return "", false
	}
	for _, m := range c.Crew {
		if m.Job == "Director" && m.Name != "" {
			return m.Name, true
		}
	}
	return "", false
}
