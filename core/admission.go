package core

import "slices"

// checkSubmission validates that a submission may be judged: the contest,
// problem, and language exist, the contest admits this user and problem
// inside its window, and the user still has submission budget.
func checkSubmission(conf *Conf, store *Store, sub Submission) error {
	contest, err := store.GetContest(sub.ContestID)
	if err != nil {
		return err
	}
	if conf.ProblemByID(sub.ProblemID) == nil {
		return NewError(ErrNotFound, "Problem %d not found.", sub.ProblemID)
	}
	if conf.LanguageByName(sub.Language) == nil {
		return NewError(ErrNotFound, "Language %s not found.", sub.Language)
	}

	if !slices.Contains(contest.UserIDs, sub.UserID) {
		return NewError(ErrInvalidArgument, "User %d not registered in contest %d.", sub.UserID, contest.ID)
	}
	if !slices.Contains(contest.ProblemIDs, sub.ProblemID) {
		return NewError(ErrInvalidArgument, "Problem %d not in contest %d.", sub.ProblemID, contest.ID)
	}
	if now := nowUTC(); now < contest.From || now > contest.To {
		return NewError(ErrInvalidArgument, "Contest %d is not open for submission.", contest.ID)
	}

	if store.CountContestSubmissions(contest.ID, sub.UserID) >= contest.SubmissionLimit {
		return NewError(ErrRateLimit, "Submission limit of contest %d reached.", contest.ID)
	}
	return nil
}
