package core

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// extraDeadline is the grace added to every case's time limit before the
// child is killed.
const extraDeadline = 500_000 * time.Microsecond

// workspace is the scoped temp directory a submission is compiled and run
// in. It is removed on every exit path.
type workspace struct {
	dir string
}

func newWorkspace(settings Settings) (*workspace, error) {
	base := settings.JudgeDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "oj-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewError(ErrInternal, "create workspace: %v", err)
	}
	return &workspace{dir: dir}, nil
}

func (w *workspace) Close() {
	_ = os.RemoveAll(w.dir)
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

// exePath is where the compiled executable lives inside the workspace.
func (w *workspace) exePath() string {
	return w.path("code")
}

// expandCommand substitutes the %INPUT% and %OUTPUT% placeholder tokens of a
// language command. Other tokens pass through verbatim.
func expandCommand(command []string, sourcePath, exePath string) []string {
	out := make([]string, len(command))
	for i, tok := range command {
		switch tok {
		case "%INPUT%":
			out[i] = sourcePath
		case "%OUTPUT%":
			out[i] = exePath
		default:
			out[i] = tok
		}
	}
	return out
}

// RunJudge compiles a submission and executes every case of the problem,
// returning the full cases sequence: the compilation pseudo-case at index 0
// followed by one entry per problem case. Per-case verdicts are values; the
// error return is reserved for infrastructure failures.
func RunJudge(settings Settings, sub Submission, lang *Language, prob *Problem) ([]CaseRes, error) {
	ws, err := newWorkspace(settings)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	compileRes, err := compile(ws, sub, lang)
	if err != nil {
		return nil, err
	}
	cases := []CaseRes{compileRes}
	if compileRes.Result == ResultCompilationError {
		for i := range prob.Cases {
			cases = append(cases, CaseRes{ID: i + 1, Result: ResultWaiting})
		}
		return cases, nil
	}

	for i, c := range prob.Cases {
		caseRes, err := runCase(settings, ws, i+1, c, prob.Type)
		if err != nil {
			return nil, err
		}
		cases = append(cases, caseRes)
	}
	return cases, nil
}

// compile writes the source into the workspace and runs the expanded
// language command synchronously. A nonzero exit is a Compilation Error
// verdict; a spawn failure is an infrastructure error.
func compile(ws *workspace, sub Submission, lang *Language) (CaseRes, error) {
	sourcePath := ws.path(lang.FileName)
	if err := os.WriteFile(sourcePath, []byte(sub.SourceCode), 0o644); err != nil {
		return CaseRes{}, NewError(ErrInternal, "write source: %v", err)
	}

	argv := expandCommand(lang.Command, sourcePath, ws.exePath())
	log.Printf("compile cmd: %v", argv)

	start := time.Now()
	cmd := exec.Command(argv[0], argv[1:]...)
	err := cmd.Run()
	elapsed := time.Since(start).Microseconds()
	if err != nil {
		if _, exited := err.(*exec.ExitError); !exited {
			return CaseRes{}, NewError(ErrInternal, "spawn compiler: %v", err)
		}
		return CaseRes{ID: 0, Result: ResultCompilationError}, nil
	}
	return CaseRes{ID: 0, Result: ResultCompilationSuccess, Time: elapsed}, nil
}

// runCase executes the built binary against one case under its deadline and
// compares the output.
func runCase(settings Settings, ws *workspace, id int, c Case, probType ProblemType) (CaseRes, error) {
	inFile, err := os.Open(c.InputFile)
	if err != nil {
		return CaseRes{}, NewError(ErrInternal, "open input %s: %v", c.InputFile, err)
	}
	defer inFile.Close()

	outPath := ws.path("code.out")
	outFile, err := os.Create(outPath)
	if err != nil {
		return CaseRes{}, NewError(ErrInternal, "create output: %v", err)
	}
	defer outFile.Close()

	cmd := exec.Command(ws.exePath())
	cmd.Stdin = inFile
	cmd.Stdout = outFile

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return CaseRes{}, NewError(ErrInternal, "spawn submission: %v", err)
	}

	exitCode, timedOut, err := waitWithDeadline(cmd, time.Duration(c.TimeLimit)*time.Microsecond+extraDeadline)
	elapsed := time.Since(start).Microseconds()
	if err != nil {
		return CaseRes{}, err
	}

	res := CaseRes{ID: id, Time: elapsed}
	switch {
	case timedOut:
		res.Result = ResultTimeLimitExceeded
	case exitCode != 0:
		res.Result = ResultRuntimeError
	default:
		verdict, err := compareOutput(settings, probType, c.AnswerFile, outPath)
		if err != nil {
			return CaseRes{}, err
		}
		res.Result = verdict
	}
	return res, nil
}

// waitWithDeadline waits for the child, killing it once the deadline
// elapses. Returns the exit code and whether the kill fired.
func waitWithDeadline(cmd *exec.Cmd, deadline time.Duration) (int, bool, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				return exitErr.ExitCode(), false, nil
			}
			return 0, false, NewError(ErrInternal, "wait submission: %v", err)
		}
		return 0, false, nil
	case <-time.After(deadline):
		_ = cmd.Process.Kill()
		<-done
		return 0, true, nil
	}
}

// compareOutput diffs the produced output against the answer file. standard
// problems ignore whitespace; strict problems compare byte-exact; the spj
// and dynamic_ranking modes are recognised but not evaluated.
func compareOutput(settings Settings, probType ProblemType, answerFile, outPath string) (CaseResult, error) {
	var argv []string
	switch probType {
	case ProblemStandard:
		argv = []string{settings.DiffPath, "-w", answerFile, outPath}
	case ProblemStrict:
		argv = []string{settings.DiffPath, answerFile, outPath}
	case ProblemSpj, ProblemDynamicRanking:
		return ResultSPJError, nil
	default:
		panic(fmt.Sprintf("unknown problem type %q", string(probType)))
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		if _, exited := err.(*exec.ExitError); !exited {
			return "", NewError(ErrInternal, "spawn diff: %v", err)
		}
		return ResultWrongAnswer, nil
	}
	return ResultAccepted, nil
}
