package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformCoursesExcludesOrganizations(t *testing.T) {
	raw := []byte(`{
		"results": [
			{"course": {"courseId": "A-1", "name": "Intro", "id": "_1_1", "isOrganization": false}},
			{"course": {"isOrganization": true}}
		]
	}`)

	payload, err := TransformCourses(raw)
	require.NoError(t, err)

	assert.Equal(t, CoursesPayload{
		Courses: []Course{
			{CourseID: "A-1", CourseName: "Intro", ID: "_1_1"},
		},
	}, payload)
}

func TestTransformCoursesSkipsRecordsWithoutCourse(t *testing.T) {
	raw := []byte(`{
		"results": [
			{},
			{"course": {"courseId": "B-2", "name": "Algebra", "id": "_2_1"}}
		]
	}`)

	payload, err := TransformCourses(raw)
	require.NoError(t, err)
	require.Len(t, payload.Courses, 1)
	assert.Equal(t, "B-2", payload.Courses[0].CourseID)
}

func TestTransformCoursesMalformed(t *testing.T) {
	for name, raw := range map[string][]byte{
		"not json":        []byte(`<html>error</html>`),
		"missing results": []byte(`{"other": []}`),
		"null results":    []byte(`{"results": null}`),
	} {
		t.Run(name, func(t *testing.T) {
			payload, err := TransformCourses(raw)
			assert.Error(t, err, "want diagnostic")
			assert.Equal(t, CoursesPayload{Courses: []Course{}}, payload)
		})
	}
}

func streamEntry(provider, handler, title, courseID, due, given string) string {
	return `{
		"providerId": "` + provider + `",
		"se_courseId": "` + courseID + `",
		"itemSpecificData": {
			"title": "` + title + `",
			"contentDetails": {
				"contentHandler": "` + handler + `",
				"dueDate": "` + due + `",
				"availableDate": "` + given + `"
			}
		}
	}`
}

func TestTransformActivitiesFiltersAndMaps(t *testing.T) {
	raw := []byte(`{
		"streamEntries": [
			` + streamEntry(StreamProviderID, ContentHandlerAssign, "HW 3", "_1_1", "2026-09-04T23:59:00Z", "2026-08-28T08:00:00Z") + `,
			` + streamEntry(StreamProviderID, ContentHandlerTestLink, "Midterm", "_2_1", "", "") + `,
			` + streamEntry("other-provider", ContentHandlerAssign, "Ignored", "_1_1", "", "") + `,
			` + streamEntry(StreamProviderID, "resource/x-bb-announcement", "Also ignored", "_1_1", "", "") + `
		],
		"extras": {"courses": {"_1_1": "Intro", "_2_1": "Algebra"}}
	}`)

	payload, err := TransformActivities(raw)
	require.NoError(t, err)
	require.Len(t, payload.Activities, 2)

	hw := payload.Activities[0]
	assert.Equal(t, "HW 3", hw.ActivityName)
	assert.Equal(t, "Intro", hw.CourseName)
	assert.Equal(t, ActivityAssignment, hw.Type)
	require.NotNil(t, hw.DueDate)
	assert.Equal(t, "2026-09-04T23:59:00Z", *hw.DueDate)
	require.NotNil(t, hw.GivenDate)
	assert.Equal(t, "2026-08-28T08:00:00Z", *hw.GivenDate)

	midterm := payload.Activities[1]
	assert.Equal(t, ActivityTest, midterm.Type)
	assert.Equal(t, "Algebra", midterm.CourseName)
	assert.Nil(t, midterm.DueDate)
	assert.Nil(t, midterm.GivenDate)
}

func TestTransformActivitiesCollapsesDuplicates(t *testing.T) {
	// Same (activityName, courseName) under two lifecycle tags: the
	// last-seen entry wins and exactly one survives.
	raw := []byte(`{
		"streamEntries": [
			` + streamEntry(StreamProviderID, ContentHandlerAssign, "HW 3", "_1_1", "2026-09-01T00:00:00Z", "") + `,
			` + streamEntry(StreamProviderID, ContentHandlerAssign, "HW 3", "_1_1", "2026-09-08T00:00:00Z", "") + `
		],
		"extras": {"courses": {"_1_1": "Intro"}}
	}`)

	payload, err := TransformActivities(raw)
	require.NoError(t, err)
	require.Len(t, payload.Activities, 1)
	require.NotNil(t, payload.Activities[0].DueDate)
	assert.Equal(t, "2026-09-08T00:00:00Z", *payload.Activities[0].DueDate)
}

func TestTransformActivitiesMalformed(t *testing.T) {
	for name, raw := range map[string][]byte{
		"not json":        []byte(`oops`),
		"missing entries": []byte(`{"extras": {}}`),
	} {
		t.Run(name, func(t *testing.T) {
			payload, err := TransformActivities(raw)
			assert.Error(t, err, "want diagnostic")
			assert.Equal(t, ActivitiesPayload{Activities: []Activity{}}, payload)
		})
	}
}

func TestTransformActivitiesMissingExtras(t *testing.T) {
	raw := []byte(`{
		"streamEntries": [
			` + streamEntry(StreamProviderID, ContentHandlerAssign, "HW 1", "_9_1", "", "") + `
		]
	}`)

	payload, err := TransformActivities(raw)
	require.NoError(t, err)
	require.Len(t, payload.Activities, 1)
	assert.Equal(t, "", payload.Activities[0].CourseName)
}

func TestHasProviderSignature(t *testing.T) {
	assert.True(t, HasProviderSignature(StreamRequestBody))
	assert.False(t, HasProviderSignature(`{"providers":{"bb-calendar":{}}}`))
	assert.False(t, HasProviderSignature(""))
}
