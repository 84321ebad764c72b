// Package portal implements the learning-portal protocol surface: the raw
// API client, the response transformers that reshape the portal's JSON into
// the simplified schema, and login-form detection.
package portal

// ActivityType classifies a stream entry in the simplified schema.
type ActivityType string

const (
	ActivityAssignment ActivityType = "Assignment"
	ActivityTest       ActivityType = "Test"
)

// Content provider and type codes the activity stream is filtered on.
// Entries from any other provider or with any other content handler are
// not part of the simplified schema and are dropped.
const (
	StreamProviderID       = "bb-nautilus"
	ContentHandlerAssign   = "resource/x-bb-assignment"
	ContentHandlerTestLink = "resource/x-bb-asmt-test-link"
)

// Textual markers delimiting the identity fragment embedded in the stream
// page source.
const (
	IdentityLeftMarker  = "current_user: "
	IdentityRightMarker = ",\n"
)

// Course is one enrollment in the simplified schema.
type Course struct {
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
	ID         string `json:"id"`
}

// CoursesPayload is the "satchel.fetch.courses" notification payload.
type CoursesPayload struct {
	Courses []Course `json:"courses"`
}

// Activity is one assignment or test in the simplified schema. Dates are
// ISO 8601 strings, or null when the portal supplied none.
type Activity struct {
	ActivityName string       `json:"activityName"`
	CourseName   string       `json:"courseName"`
	Type         ActivityType `json:"type"`
	DueDate      *string      `json:"dueDate"`
	GivenDate    *string      `json:"givenDate"`
}

// ActivitiesPayload is the "satchel.fetch.assignments" notification payload.
type ActivitiesPayload struct {
	Activities []Activity `json:"activities"`
}

// Raw wire shapes, as the portal's internal API returns them.

type rawMemberships struct {
	Results []rawMembership `json:"results"`
}

type rawMembership struct {
	Course *rawCourse `json:"course"`
}

type rawCourse struct {
	CourseID       string `json:"courseId"`
	Name           string `json:"name"`
	ID             string `json:"id"`
	IsOrganization bool   `json:"isOrganization"`
}

type rawStream struct {
	StreamEntries []rawStreamEntry `json:"streamEntries"`
	Extras        *rawStreamExtras `json:"extras"`
}

type rawStreamExtras struct {
	// Courses maps a course ID to its display name.
	Courses map[string]string `json:"courses"`
}

type rawStreamEntry struct {
	ProviderID       string              `json:"providerId"`
	CourseID         string              `json:"se_courseId"`
	ItemSpecificData rawItemSpecificData `json:"itemSpecificData"`
}

type rawItemSpecificData struct {
	Title          string            `json:"title"`
	ContentDetails rawContentDetails `json:"contentDetails"`
}

type rawContentDetails struct {
	ContentHandler string `json:"contentHandler"`
	DueDate        string `json:"dueDate"`
	AvailableDate  string `json:"availableDate"`
}
