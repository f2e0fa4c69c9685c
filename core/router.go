package core

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(conf *Conf, settings Settings, store *Store) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/jobs", func(c *gin.Context) {
		var sub Submission
		if err := c.ShouldBindJSON(&sub); err != nil {
			respondError(c, NewError(ErrInvalidArgument, "invalid json"))
			return
		}

		if err := checkSubmission(conf, store, sub); err != nil {
			respondError(c, err)
			return
		}
		lang := conf.LanguageByName(sub.Language)
		prob := conf.ProblemByID(sub.ProblemID)

		job := NewJob(sub)
		// No store lock is held while the judge runs; the id is assigned
		// only once the run produced a result.
		cases, err := RunJudge(settings, sub, lang, prob)
		if err != nil {
			respondError(c, err)
			return
		}
		job.mergeCases(cases, prob)
		job = store.InsertJob(job)

		c.JSON(http.StatusOK, job)
	})

	r.GET("/jobs", func(c *gin.Context) {
		filter, err := parseJobFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, store.ListJobs(filter))
	})

	r.GET("/jobs/:id", func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		job, err := store.GetJob(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	})

	r.PUT("/jobs/:id", func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		job, err := store.GetJob(id)
		if err != nil {
			respondError(c, err)
			return
		}
		if job.State != StateFinished {
			respondError(c, NewError(ErrInvalidState, "Job %d not finished.", id))
			return
		}

		// Rejudge runs against the current configuration.
		lang := conf.LanguageByName(job.Submission.Language)
		prob := conf.ProblemByID(job.Submission.ProblemID)
		if lang == nil {
			respondError(c, NewError(ErrNotFound, "Language %s not found.", job.Submission.Language))
			return
		}
		if prob == nil {
			respondError(c, NewError(ErrNotFound, "Problem %d not found.", job.Submission.ProblemID))
			return
		}

		job.UpdatedTime = nowUTC()
		cases, err := RunJudge(settings, job.Submission, lang, prob)
		if err != nil {
			respondError(c, err)
			return
		}
		job.mergeCases(cases, prob)
		store.UpsertJob(job)

		c.JSON(http.StatusOK, job)
	})

	r.POST("/users", func(c *gin.Context) {
		var req struct {
			ID   *int   `json:"id"`
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, NewError(ErrInvalidArgument, "invalid json"))
			return
		}
		id := -1
		if req.ID != nil {
			id = *req.ID
		}
		user, err := store.CreateOrUpdateUser(User{ID: id, Name: req.Name})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	})

	r.GET("/users", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.ListUsers())
	})

	r.POST("/contests", func(c *gin.Context) {
		var req struct {
			ID              *int   `json:"id"`
			Name            string `json:"name"`
			From            string `json:"from"`
			To              string `json:"to"`
			ProblemIDs      []int  `json:"problem_ids"`
			UserIDs         []int  `json:"user_ids"`
			SubmissionLimit int    `json:"submission_limit"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, NewError(ErrInvalidArgument, "invalid json"))
			return
		}
		id := -1
		if req.ID != nil {
			id = *req.ID
		}
		contest, err := store.CreateOrUpdateContest(Contest{
			ID:              id,
			Name:            req.Name,
			From:            req.From,
			To:              req.To,
			ProblemIDs:      req.ProblemIDs,
			UserIDs:         req.UserIDs,
			SubmissionLimit: req.SubmissionLimit,
		}, conf)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contest)
	})

	r.GET("/contests", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.ListContests())
	})

	r.GET("/contests/:id", func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		contest, err := store.GetContest(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contest)
	})

	r.GET("/contests/:id/ranklist", func(c *gin.Context) {
		id, err := parseIDParam(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		rule, err := ParseScoringRule(c.Query("scoring_rule"))
		if err != nil {
			respondError(c, err)
			return
		}
		tie, err := ParseTieBreaker(c.Query("tie_breaker"))
		if err != nil {
			respondError(c, err)
			return
		}
		ranked, err := Ranklist(store, id, rule, tie)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ranked)
	})

	internal := r.Group("/internal")
	{
		internal.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, CollectSystemStatus(store, startedAt))
		})

		// DO NOT REMOVE: used in automatic testing
		internal.POST("/exit", func(c *gin.Context) {
			log.Println("Shutdown as requested")
			os.Exit(0)
		})
	}

	return r
}

func parseIDParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, NewError(ErrInvalidArgument, "invalid id %q", c.Param(name))
	}
	return id, nil
}

// parseJobFilter reads the optional GET /jobs query parameters; a present
// parameter must parse, and all present parameters must match a job for it
// to be listed.
func parseJobFilter(c *gin.Context) (JobFilter, error) {
	var f JobFilter

	intParam := func(name string, dst **int) error {
		raw, ok := c.GetQuery(name)
		if !ok {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return NewError(ErrInvalidArgument, "invalid %s %q", name, raw)
		}
		*dst = &v
		return nil
	}
	if err := intParam("user_id", &f.UserID); err != nil {
		return f, err
	}
	if err := intParam("contest_id", &f.ContestID); err != nil {
		return f, err
	}
	if err := intParam("problem_id", &f.ProblemID); err != nil {
		return f, err
	}

	if raw, ok := c.GetQuery("user_name"); ok {
		f.UserName = &raw
	}
	if raw, ok := c.GetQuery("language"); ok {
		f.Language = &raw
	}
	if raw, ok := c.GetQuery("from"); ok {
		f.From = &raw
	}
	if raw, ok := c.GetQuery("to"); ok {
		f.To = &raw
	}
	if raw, ok := c.GetQuery("state"); ok {
		state, err := ParseState(raw)
		if err != nil {
			return f, err
		}
		f.State = &state
	}
	if raw, ok := c.GetQuery("result"); ok {
		result, err := ParseCaseResult(raw)
		if err != nil {
			return f, err
		}
		f.Result = &result
	}
	return f, nil
}
