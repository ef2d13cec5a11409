// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/AleutianAI/refscan/services/analysis"
)

func plainReporter(buf *bytes.Buffer, opts ...ConsoleOption) *ConsoleReporter {
	opts = append([]ConsoleOption{WithWriter(buf), WithColor(false)}, opts...)
	return NewConsoleReporter(opts...)
}

func TestConsoleReporterPrintsFindings(t *testing.T) {
	var buf bytes.Buffer
	r := plainReporter(&buf)

	results := []analysis.AnalysisResult{
		{
			Target: analysis.NewAnalysisTarget("app/ok.php"),
			Kind:   analysis.KindRoutes,
		},
		{
			Target:  analysis.NewAnalysisTarget("app/bad.php"),
			Kind:    analysis.KindRoutes,
			Missing: []analysis.Reference{analysis.StaticRef("users.gone", 7)},
		},
	}

	r.Start(len(results))
	for _, res := range results {
		r.Progress(res)
	}
	r.Finish(results)

	out := buf.String()
	if strings.Contains(out, "app/ok.php") {
		t.Error("clean files must not print without verbose")
	}
	if !strings.Contains(out, "app/bad.php") {
		t.Error("failing file missing from output")
	}
	if !strings.Contains(out, "missing: users.gone (line 7)") {
		t.Errorf("finding line missing, output:\n%s", out)
	}
	if !strings.Contains(out, "2 files checked") {
		t.Errorf("summary missing, output:\n%s", out)
	}
	if !strings.Contains(out, "1 with missing references (1 total)") {
		t.Errorf("failure tally missing, output:\n%s", out)
	}
}

func TestConsoleReporterVerbosePrintsCleanFiles(t *testing.T) {
	var buf bytes.Buffer
	r := plainReporter(&buf, WithVerbose(true))

	r.Start(1)
	r.Progress(analysis.AnalysisResult{
		Target: analysis.NewAnalysisTarget("app/ok.php"),
		Kind:   analysis.KindClasses,
	})

	if !strings.Contains(buf.String(), "app/ok.php") {
		t.Error("verbose mode must print clean files")
	}
	if !strings.Contains(buf.String(), "ok") {
		t.Error("verbose mode must mark clean files")
	}
}

func TestConsoleReporterWarningsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	r := plainReporter(&buf)

	r.Start(2)
	r.Progress(analysis.AnalysisResult{
		Target:   analysis.NewAnalysisTarget("app/dyn.php"),
		Kind:     analysis.KindRoutes,
		Warnings: []analysis.Reference{analysis.DynamicRef("'posts.' . $a", 4)},
	})
	errored := analysis.ErrorResult(
		analysis.NewAnalysisTarget("app/broken.php"),
		analysis.KindRoutes,
		errors.New("content is not valid UTF-8"))
	r.Progress(errored)
	r.Finish([]analysis.AnalysisResult{{}, errored})

	out := buf.String()
	if !strings.Contains(out, "dynamic: 'posts.' . $a (line 4)") {
		t.Errorf("dynamic warning missing, output:\n%s", out)
	}
	if !strings.Contains(out, "error: content is not valid UTF-8") {
		t.Errorf("error line missing, output:\n%s", out)
	}
	if !strings.Contains(out, "1 dynamic") || !strings.Contains(out, "1 errors") {
		t.Errorf("summary tallies missing, output:\n%s", out)
	}
}

func TestConsoleReporterConcurrentProgress(t *testing.T) {
	var buf bytes.Buffer
	r := plainReporter(&buf)

	r.Start(50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Progress(analysis.AnalysisResult{
				Target:  analysis.NewAnalysisTarget("f.php"),
				Missing: []analysis.Reference{analysis.StaticRef("x", 1)},
			})
		}()
	}
	wg.Wait()
	r.Finish(make([]analysis.AnalysisResult, 50))

	if got := strings.Count(buf.String(), "missing: x"); got != 50 {
		t.Errorf("got %d finding lines, want 50", got)
	}
}
