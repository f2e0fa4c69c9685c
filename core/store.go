package core

import (
	"math"
	"sync"
)

// User of the judge. Ids are dense from 0; id 0 is the built-in root user.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Contest groups problems and users under a submission window and limit.
// Contest 0 is the synthetic global contest spanning everything.
type Contest struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	From            string `json:"from"`
	To              string `json:"to"`
	ProblemIDs      []int  `json:"problem_ids"`
	UserIDs         []int  `json:"user_ids"`
	SubmissionLimit int    `json:"submission_limit"`
}

const GlobalContestID = 0

// The global contest admits everything; its window and limit are finite
// sentinels that no real submission reaches.
const (
	globalContestFrom  = "1970-01-01T00:00:00.000Z"
	globalContestTo    = "9999-12-31T23:59:59.999Z"
	globalContestLimit = math.MaxInt32
)

// Store holds the three shared collections. Each is guarded by its own
// mutex; handlers that need more than one must lock in the order
// jobs -> users -> contests and unlock in reverse. No lock may be held
// across subprocess execution.
type Store struct {
	jobsMu sync.Mutex
	jobs   []Job

	usersMu sync.Mutex
	users   []User

	contestsMu sync.Mutex
	contests   []Contest
}

// NewStore bootstraps the collections: the root user and the global contest
// over every configured problem.
func NewStore(conf *Conf) *Store {
	s := &Store{}
	s.users = append(s.users, User{ID: 0, Name: "root"})
	s.contests = append(s.contests, Contest{
		ID:              GlobalContestID,
		Name:            "Global",
		From:            globalContestFrom,
		To:              globalContestTo,
		ProblemIDs:      conf.ProblemIDs(),
		UserIDs:         []int{0},
		SubmissionLimit: globalContestLimit,
	})
	return s
}

// NewJob builds the not-yet-inserted job record for a submission. The id is
// assigned by InsertJob, atomically with the append, so a failed judge run
// never burns an id.
func NewJob(sub Submission) Job {
	now := nowUTC()
	return Job{
		ID:          -1,
		CreatedTime: now,
		UpdatedTime: now,
		Submission:  sub,
		State:       StateQueueing,
		Result:      ResultWaiting,
		Score:       0,
		Cases:       []CaseRes{},
	}
}

// InsertJob assigns the next dense id and appends the job, returning the
// stored copy.
func (s *Store) InsertJob(job Job) Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	job.ID = len(s.jobs)
	s.jobs = append(s.jobs, job)
	return job
}

// UpsertJob replaces the job with the same id, or appends when the id is the
// next dense one.
func (s *Store) UpsertJob(job Job) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if job.ID >= 0 && job.ID < len(s.jobs) {
		s.jobs[job.ID] = job
		return
	}
	if job.ID != len(s.jobs) {
		panic("job ids must stay dense")
	}
	s.jobs = append(s.jobs, job)
}

// GetJob returns the job by id.
func (s *Store) GetJob(id int) (Job, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if id < 0 || id >= len(s.jobs) {
		return Job{}, NewError(ErrNotFound, "Job %d not found.", id)
	}
	return cloneJob(s.jobs[id]), nil
}

// JobFilter restricts ListJobs; nil fields match everything.
type JobFilter struct {
	UserID    *int
	UserName  *string
	ContestID *int
	ProblemID *int
	Language  *string
	From      *string
	To        *string
	State     *State
	Result    *CaseResult
}

// ListJobs returns all jobs matching the filter, in id order. It takes the
// jobs and users locks (in that order) because user_name filtering resolves
// through the user list.
func (s *Store) ListJobs(f JobFilter) []Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	out := []Job{}
	for i := range s.jobs {
		job := &s.jobs[i]
		if f.UserID != nil && job.Submission.UserID != *f.UserID {
			continue
		}
		if f.UserName != nil {
			uid := job.Submission.UserID
			if uid < 0 || uid >= len(s.users) || s.users[uid].Name != *f.UserName {
				continue
			}
		}
		if f.ContestID != nil && job.Submission.ContestID != *f.ContestID {
			continue
		}
		if f.ProblemID != nil && job.Submission.ProblemID != *f.ProblemID {
			continue
		}
		if f.Language != nil && job.Submission.Language != *f.Language {
			continue
		}
		if f.From != nil && job.CreatedTime < *f.From {
			continue
		}
		if f.To != nil && job.CreatedTime > *f.To {
			continue
		}
		if f.State != nil && job.State != *f.State {
			continue
		}
		if f.Result != nil && job.Result != *f.Result {
			continue
		}
		out = append(out, cloneJob(*job))
	}
	return out
}

// SnapshotJobs copies the whole job list, in id order.
func (s *Store) SnapshotJobs() []Job {
	return s.ListJobs(JobFilter{})
}

func cloneJob(job Job) Job {
	cases := make([]CaseRes, len(job.Cases))
	copy(cases, job.Cases)
	job.Cases = cases
	return job
}

// CreateOrUpdateUser appends a new user when id is -1 (rejecting duplicate
// names, and joining the global contest), or overwrites the user at an
// existing id.
func (s *Store) CreateOrUpdateUser(user User) (User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if user.ID == -1 {
		for _, cur := range s.users {
			if cur.Name == user.Name {
				return User{}, NewError(ErrInvalidArgument, "User name '%s' already exists.", user.Name)
			}
		}
		user.ID = len(s.users)
		s.users = append(s.users, user)

		s.contestsMu.Lock()
		s.contests[GlobalContestID].UserIDs = append(s.contests[GlobalContestID].UserIDs, user.ID)
		s.contestsMu.Unlock()
		return user, nil
	}

	if user.ID < 0 || user.ID >= len(s.users) {
		return User{}, NewError(ErrNotFound, "User %d not found.", user.ID)
	}
	s.users[user.ID] = user
	return user, nil
}

// GetUser returns the user by id.
func (s *Store) GetUser(id int) (User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	if id < 0 || id >= len(s.users) {
		return User{}, NewError(ErrNotFound, "User %d not found.", id)
	}
	return s.users[id], nil
}

// ListUsers returns every user in id order.
func (s *Store) ListUsers() []User {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return append([]User(nil), s.users...)
}

// CreateOrUpdateContest appends a new contest when id is -1 or overwrites an
// existing one. The global contest is not user-modifiable, and every
// referenced problem and user must exist.
func (s *Store) CreateOrUpdateContest(contest Contest, conf *Conf) (Contest, error) {
	if contest.ID == GlobalContestID {
		return Contest{}, NewError(ErrInvalidArgument, "Invalid contest id %d.", contest.ID)
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	s.contestsMu.Lock()
	defer s.contestsMu.Unlock()

	for _, pid := range contest.ProblemIDs {
		if conf.ProblemByID(pid) == nil {
			return Contest{}, NewError(ErrNotFound, "Problem %d not found.", pid)
		}
	}
	for _, uid := range contest.UserIDs {
		if uid < 0 || uid >= len(s.users) {
			return Contest{}, NewError(ErrNotFound, "User %d not found.", uid)
		}
	}

	if contest.ID == -1 {
		contest.ID = len(s.contests)
		s.contests = append(s.contests, contest)
		return contest, nil
	}
	if contest.ID < 0 || contest.ID >= len(s.contests) {
		return Contest{}, NewError(ErrNotFound, "Contest %d not found.", contest.ID)
	}
	s.contests[contest.ID] = contest
	return contest, nil
}

// GetContest returns the contest by id, including the global one.
func (s *Store) GetContest(id int) (Contest, error) {
	s.contestsMu.Lock()
	defer s.contestsMu.Unlock()
	if id < 0 || id >= len(s.contests) {
		return Contest{}, NewError(ErrNotFound, "Contest %d not found.", id)
	}
	return cloneContest(s.contests[id]), nil
}

// ListContests returns every contest except the global one.
func (s *Store) ListContests() []Contest {
	s.contestsMu.Lock()
	defer s.contestsMu.Unlock()
	out := []Contest{}
	for _, c := range s.contests {
		if c.ID == GlobalContestID {
			continue
		}
		out = append(out, cloneContest(c))
	}
	return out
}

func cloneContest(c Contest) Contest {
	problemIDs := make([]int, len(c.ProblemIDs))
	copy(problemIDs, c.ProblemIDs)
	userIDs := make([]int, len(c.UserIDs))
	copy(userIDs, c.UserIDs)
	c.ProblemIDs = problemIDs
	c.UserIDs = userIDs
	return c
}

// CountContestSubmissions counts every historical job the user submitted to
// the contest, regardless of state.
func (s *Store) CountContestSubmissions(contestID, userID int) int {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	n := 0
	for i := range s.jobs {
		sub := &s.jobs[i].Submission
		if sub.ContestID == contestID && sub.UserID == userID {
			n++
		}
	}
	return n
}

// CountUsers returns the number of users.
func (s *Store) CountUsers() int {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return len(s.users)
}

// CountContests returns the number of contests, the global one included.
func (s *Store) CountContests() int {
	s.contestsMu.Lock()
	defer s.contestsMu.Unlock()
	return len(s.contests)
}

// CountJobsByState tallies jobs per lifecycle state.
func (s *Store) CountJobsByState() map[State]int {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	out := map[State]int{}
	for i := range s.jobs {
		out[s.jobs[i].State]++
	}
	return out
}
