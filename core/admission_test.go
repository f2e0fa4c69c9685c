package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	return apiErr.Kind()
}

func admissionFixture(t *testing.T) (*Conf, *Store) {
	t.Helper()
	conf := testConf()
	store := NewStore(conf)
	_, err := store.CreateOrUpdateUser(User{ID: -1, Name: "alice"})
	require.NoError(t, err)

	_, err = store.CreateOrUpdateContest(Contest{
		ID:              -1,
		Name:            "Weekly 1",
		From:            "2000-01-01T00:00:00.000Z",
		To:              "9000-01-01T00:00:00.000Z",
		ProblemIDs:      []int{0},
		UserIDs:         []int{1},
		SubmissionLimit: 2,
	}, conf)
	require.NoError(t, err)
	return conf, store
}

func TestAdmissionAccepts(t *testing.T) {
	conf, store := admissionFixture(t)
	err := checkSubmission(conf, store, Submission{
		Language: "sh", UserID: 1, ContestID: 1, ProblemID: 0,
	})
	assert.NoError(t, err)
}

func TestAdmissionUnknownContest(t *testing.T) {
	conf, store := admissionFixture(t)
	err := checkSubmission(conf, store, Submission{Language: "sh", UserID: 1, ContestID: 9, ProblemID: 0})
	assert.Equal(t, ErrNotFound, kindOf(t, err))
}

func TestAdmissionUnknownProblem(t *testing.T) {
	conf, store := admissionFixture(t)
	err := checkSubmission(conf, store, Submission{Language: "sh", UserID: 1, ContestID: 1, ProblemID: 77})
	assert.Equal(t, ErrNotFound, kindOf(t, err))
}

func TestAdmissionUnknownLanguage(t *testing.T) {
	conf, store := admissionFixture(t)
	err := checkSubmission(conf, store, Submission{Language: "cobol", UserID: 1, ContestID: 1, ProblemID: 0})
	assert.Equal(t, ErrNotFound, kindOf(t, err))
}

func TestAdmissionUserNotRegistered(t *testing.T) {
	conf, store := admissionFixture(t)
	err := checkSubmission(conf, store, Submission{Language: "sh", UserID: 0, ContestID: 1, ProblemID: 0})
	assert.Equal(t, ErrInvalidArgument, kindOf(t, err))
}

func TestAdmissionProblemNotInContest(t *testing.T) {
	conf, store := admissionFixture(t)
	err := checkSubmission(conf, store, Submission{Language: "sh", UserID: 1, ContestID: 1, ProblemID: 1})
	assert.Equal(t, ErrInvalidArgument, kindOf(t, err))
}

func TestAdmissionOutsideWindow(t *testing.T) {
	conf := testConf()
	store := NewStore(conf)
	_, err := store.CreateOrUpdateContest(Contest{
		ID:              -1,
		Name:            "Closed",
		From:            "2000-01-01T00:00:00.000Z",
		To:              "2000-01-02T00:00:00.000Z",
		ProblemIDs:      []int{0},
		UserIDs:         []int{0},
		SubmissionLimit: 2,
	}, conf)
	require.NoError(t, err)

	err = checkSubmission(conf, store, Submission{Language: "sh", UserID: 0, ContestID: 1, ProblemID: 0})
	assert.Equal(t, ErrInvalidArgument, kindOf(t, err))
}

func TestAdmissionRateLimit(t *testing.T) {
	conf, store := admissionFixture(t)
	sub := Submission{Language: "sh", UserID: 1, ContestID: 1, ProblemID: 0}

	store.InsertJob(NewJob(sub))
	assert.NoError(t, checkSubmission(conf, store, sub))

	store.InsertJob(NewJob(sub))
	err := checkSubmission(conf, store, sub)
	assert.Equal(t, ErrRateLimit, kindOf(t, err))

	// Submissions to other contests do not count against this limit.
	assert.Equal(t, 0, store.CountContestSubmissions(GlobalContestID, 1))
}

func TestAdmissionGlobalContest(t *testing.T) {
	conf, store := admissionFixture(t)

	// Every user and every problem are admitted, with no practical limit.
	for _, uid := range []int{0, 1} {
		for _, pid := range []int{0, 1} {
			err := checkSubmission(conf, store, Submission{
				Language: "sh", UserID: uid, ContestID: GlobalContestID, ProblemID: pid,
			})
			assert.NoError(t, err)
		}
	}
}
