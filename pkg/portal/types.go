package portal

// User is the signed-in student's profile.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	StandardSelected bool   `json:"standard_selected"`
	Standard         string `json:"standard"`
	Language         string `json:"language"`
}

// Subject is one subject of the catalog.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Chapter is one chapter of a subject for the student's standard.
type Chapter struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	SubjectID int64  `json:"subject_id"`
}

// Credentials holds the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration holds the sign-up fields sent to the portal. Password
// confirmation is checked client-side and never sent.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Standard string `json:"standard"`
}

// Settings holds the fields of a settings update. Empty fields are left
// unchanged by the portal.
type Settings struct {
	Standard string `json:"standard,omitempty"`
	Language string `json:"language,omitempty"`
}

// ChatRequest is one message to the tutor, scoped to a chapter.
type ChatRequest struct {
	Message   string `json:"message"`
	ChapterID int64  `json:"chapter_id"`
	SubjectID int64  `json:"subject_id"`
}

// HistoryEntry is one stored chat message. Role is "user" or "ai".
type HistoryEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Question is one multiple-choice question of a generated test.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}
