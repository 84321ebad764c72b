package portal

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransformCourses reshapes a raw memberships response into the simplified
// course list. It never fails hard: a malformed or missing top-level shape
// yields an empty payload and a diagnostic error for the caller to log.
// Organization enrollments and records without a course sub-object are
// excluded.
func TransformCourses(raw []byte) (CoursesPayload, error) {
	payload := CoursesPayload{Courses: []Course{}}

	var parsed rawMemberships
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return payload, fmt.Errorf("malformed memberships response: %w", err)
	}
	if parsed.Results == nil {
		return payload, fmt.Errorf("memberships response missing results array")
	}

	for _, rec := range parsed.Results {
		c := rec.Course
		if c == nil || c.IsOrganization {
			continue
		}
		payload.Courses = append(payload.Courses, Course{
			CourseID:   c.CourseID,
			CourseName: c.Name,
			ID:         c.ID,
		})
	}

	return payload, nil
}

// TransformActivities reshapes a raw activity-stream response into the
// simplified activity list. Entries are kept only when they come from the
// expected content provider and carry one of the two recognized content
// handlers. Duplicate (activityName, courseName) pairs collapse to one,
// last-seen-wins. Like TransformCourses, a malformed top-level shape yields
// an empty payload and a diagnostic error.
func TransformActivities(raw []byte) (ActivitiesPayload, error) {
	payload := ActivitiesPayload{Activities: []Activity{}}

	var parsed rawStream
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return payload, fmt.Errorf("malformed stream response: %w", err)
	}
	if parsed.StreamEntries == nil {
		return payload, fmt.Errorf("stream response missing streamEntries array")
	}

	courseNames := map[string]string{}
	if parsed.Extras != nil {
		courseNames = parsed.Extras.Courses
	}

	// index tracks the position of each (activityName, courseName) pair so
	// a later duplicate overwrites the earlier value in place.
	index := make(map[string]int)

	for _, entry := range parsed.StreamEntries {
		if entry.ProviderID != StreamProviderID {
			continue
		}

		var kind ActivityType
		switch entry.ItemSpecificData.ContentDetails.ContentHandler {
		case ContentHandlerAssign:
			kind = ActivityAssignment
		case ContentHandlerTestLink:
			kind = ActivityTest
		default:
			continue
		}

		activity := Activity{
			ActivityName: entry.ItemSpecificData.Title,
			CourseName:   courseNames[entry.CourseID],
			Type:         kind,
			DueDate:      isoDate(entry.ItemSpecificData.ContentDetails.DueDate),
			GivenDate:    isoDate(entry.ItemSpecificData.ContentDetails.AvailableDate),
		}

		key := activity.ActivityName + "\x00" + activity.CourseName
		if i, seen := index[key]; seen {
			payload.Activities[i] = activity
			continue
		}
		index[key] = len(payload.Activities)
		payload.Activities = append(payload.Activities, activity)
	}

	return payload, nil
}

// isoDate normalizes a portal date to RFC 3339, or nil when absent or
// unparseable.
func isoDate(s string) *string {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.UTC().Format(time.RFC3339)
			return &iso
		}
	}
	return nil
}
