package testing

import (
	"ssagen/config"
	. "ssagen/core"
	et "ssagen/core/errorkind"
	"ssagen/pipelines"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// files are tested by generating code for them, running it on the
// simulator and comparing the exit status with direct evaluation of
// the IR.
//
// the expected error is located directly in the name of the file:
// 	name.E201.go
// 	     ^ error code
// 	name.go
// 	    ^ no error code (both runs must agree)

type TestResult struct {
	File    string
	Message string
	Ok      bool
}

func (res *TestResult) String() string {
	if res.Ok {
		return "\u001b[34mok\u001b[0m"
	}
	return "\u001b[31mfail\u001b[0m"
}

type Options struct {
	Target  *config.Target
	Timeout time.Duration
	// number of files tested at the same time, 0 means one per CPU
	Jobs int
	// shows a progress bar while testing
	Progress bool
}

// TestFolder tests every .go file under folder and returns the
// results in path order.
func TestFolder(ctx context.Context, folder string, opt Options) ([]*TestResult, error) {
	files := []string{}
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if opt.Progress {
		bar = progressbar.Default(int64(len(files)), "testing")
		defer bar.Close()
	}
	jobs := opt.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	results := make([]*TestResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, file := range files {
		g.Go(func() error {
			res := Test(ctx, file, opt.Target, opt.Timeout)
			results[i] = &res
			slog.Debug("tested", "file", file, "ok", res.Ok)
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func Test(ctx context.Context, file string, t *config.Target, timeout time.Duration) (res TestResult) {
	defer recoverIfFatal(file, &res)
	expectedErr := extractError(file)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	want, err := pipelines.Eval(ctx, file, t)
	if err != nil {
		return compareError(file, err, expectedErr)
	}
	got, err := pipelines.Run(ctx, file, t)
	if err != nil {
		return compareError(file, err, expectedErr)
	}
	if expectedErr != "" {
		return compareError(file, nil, expectedErr)
	}
	if got != want {
		return TestResult{
			File: file,
			Ok:   false,
			Message: "generated code returned " + strconv.FormatInt(got, 10) +
				", evaluation returned " + strconv.FormatInt(want, 10),
		}
	}
	return TestResult{
		File: file,
		Ok:   true,
	}
}

func recoverIfFatal(file string, res *TestResult) {
	if r := recover(); r != nil {
		*res = TestResult{
			File:    file,
			Ok:      false,
			Message: fmt.Sprintf("fatal error: %v", r),
		}
	}
}

// extractError returns the code between the last two dots of the file
// name, or "" when there is none or it is not a known code
func extractError(file string) string {
	name := filepath.Base(file)
	sections := strings.Split(name, ".")
	if len(sections) < 3 {
		return ""
	}
	code := sections[len(sections)-2]
	if _, ok := et.FromCode(code); !ok {
		return ""
	}
	return code
}

func compareError(file string, err *Error, expectedErr string) TestResult {
	if err != nil && err.Code == et.InternalCompilerError {
		return TestResult{
			File:    file,
			Ok:      false,
			Message: err.Message,
		}
	}
	if err != nil && expectedErr == "" {
		msg := "expected no errors, instead found: " +
			err.ErrCode() + " " + err.Message
		return TestResult{
			File:    file,
			Message: msg,
			Ok:      false,
		}
	} else if err == nil && expectedErr != "" {
		msg := "expected error " + expectedErr +
			", instead found nothing"
		return TestResult{
			File:    file,
			Message: msg,
			Ok:      false,
		}
	} else if err != nil && expectedErr != "" {
		actual := err.ErrCode()
		if actual != expectedErr {
			msg := "expected error " + expectedErr +
				", instead found " + actual
			return TestResult{
				File:    file,
				Message: msg,
				Ok:      false,
			}
		}
	}
	return TestResult{
		File: file,
		Ok:   true,
	}
}
