package core

import "sort"

// ScoringRule selects which of a user's submissions counts per problem.
type ScoringRule string

const (
	ScoringLatest  ScoringRule = "latest"
	ScoringHighest ScoringRule = "highest"
)

// ParseScoringRule validates a scoring_rule query value; empty means latest.
func ParseScoringRule(s string) (ScoringRule, error) {
	switch s {
	case "":
		return ScoringLatest, nil
	case string(ScoringLatest), string(ScoringHighest):
		return ScoringRule(s), nil
	}
	return "", NewError(ErrInvalidArgument, "unknown scoring rule %q", s)
}

// TieBreaker orders users that share a total score.
type TieBreaker string

const (
	TieNone            TieBreaker = ""
	TieSubmissionTime  TieBreaker = "submission_time"
	TieSubmissionCount TieBreaker = "submission_count"
	TieUserID          TieBreaker = "user_id"
)

// ParseTieBreaker validates a tie_breaker query value; empty means unset.
func ParseTieBreaker(s string) (TieBreaker, error) {
	switch TieBreaker(s) {
	case TieNone, TieSubmissionTime, TieSubmissionCount, TieUserID:
		return TieBreaker(s), nil
	}
	return "", NewError(ErrInvalidArgument, "unknown tie breaker %q", s)
}

// noEffectiveTime sorts after every real timestamp; it stands in for "this
// user never improved their score" under the chosen rule.
const noEffectiveTime = "9999-12-31T23:59:59.999Z"

// RankedUser is one row of a contest ranklist.
type RankedUser struct {
	User   User      `json:"user"`
	Rank   int       `json:"rank"`
	Scores []float64 `json:"scores"`
}

type rankEntry struct {
	user            User
	total           float64
	scores          []float64
	submissionCount int
	lastEffective   string
}

// Ranklist scores every participating user of a contest under the scoring
// rule, orders them by descending total with the tie-breaker, and assigns
// dense ranks. Locks are taken in the canonical jobs -> users -> contests
// order via the store snapshot accessors.
func Ranklist(store *Store, contestID int, rule ScoringRule, tie TieBreaker) ([]RankedUser, error) {
	jobs := store.SnapshotJobs()
	users := store.ListUsers()
	contest, err := store.GetContest(contestID)
	if err != nil {
		return nil, err
	}

	participants := contestUsers(contest, users)
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })

	entries := make([]rankEntry, 0, len(participants))
	for _, user := range participants {
		entries = append(entries, scoreUser(user, contest, jobs, rule))
	}

	less := func(a, b *rankEntry) bool {
		if a.total != b.total {
			return a.total > b.total
		}
		switch tie {
		case TieSubmissionTime:
			if a.lastEffective != b.lastEffective {
				return a.lastEffective < b.lastEffective
			}
		case TieSubmissionCount:
			if a.submissionCount != b.submissionCount {
				return a.submissionCount < b.submissionCount
			}
		case TieUserID:
			return a.user.ID < b.user.ID
		}
		return a.user.ID < b.user.ID
	}
	tied := func(a, b *rankEntry) bool {
		if a.total != b.total {
			return false
		}
		switch tie {
		case TieSubmissionTime:
			return a.lastEffective == b.lastEffective
		case TieSubmissionCount:
			return a.submissionCount == b.submissionCount
		case TieUserID:
			return false
		}
		return true
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(&entries[i], &entries[j]) })

	out := make([]RankedUser, 0, len(entries))
	for i := range entries {
		rank := i + 1
		if i > 0 && tied(&entries[i-1], &entries[i]) {
			rank = out[i-1].Rank
		}
		out = append(out, RankedUser{
			User:   entries[i].user,
			Rank:   rank,
			Scores: entries[i].scores,
		})
	}
	return out, nil
}

// contestUsers resolves the participating user set: everyone for the global
// contest, the registered users otherwise.
func contestUsers(contest Contest, users []User) []User {
	if contest.ID == GlobalContestID {
		return append([]User(nil), users...)
	}
	out := make([]User, 0, len(contest.UserIDs))
	for _, uid := range contest.UserIDs {
		for _, u := range users {
			if u.ID == uid {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

// scoreUser folds the user's jobs for this contest, in job-id order, into a
// per-problem score map under the scoring rule.
func scoreUser(user User, contest Contest, jobs []Job, rule ScoringRule) rankEntry {
	perProblem := map[int]float64{}
	entry := rankEntry{user: user, lastEffective: noEffectiveTime}

	for i := range jobs {
		job := &jobs[i]
		if job.Submission.UserID != user.ID {
			continue
		}
		if contest.ID != GlobalContestID && job.Submission.ContestID != contest.ID {
			continue
		}
		entry.submissionCount++

		updated := false
		switch rule {
		case ScoringLatest:
			perProblem[job.Submission.ProblemID] = job.Score
			updated = true
		case ScoringHighest:
			// Equal scores do not improve. The best starts at 0, so
			// lastEffective stays unset when no submission scored above 0.
			if job.Score > perProblem[job.Submission.ProblemID] {
				perProblem[job.Submission.ProblemID] = job.Score
				updated = true
			}
		}
		if updated {
			if entry.lastEffective == noEffectiveTime || job.CreatedTime > entry.lastEffective {
				entry.lastEffective = job.CreatedTime
			}
		}
	}

	entry.scores = make([]float64, 0, len(contest.ProblemIDs))
	for _, pid := range contest.ProblemIDs {
		score := perProblem[pid]
		entry.scores = append(entry.scores, score)
		entry.total += score
	}
	return entry
}
