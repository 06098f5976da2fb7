package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"compasview/internal/apiclient"
	"compasview/internal/executor"
	"compasview/internal/scene"
	"compasview/internal/termlog"
)

const (
	outputTTL  = 2500 * time.Millisecond
	successTTL = 2000 * time.Millisecond
)

// session applies executor replies to the scene and the terminal log.
//
// Every request that changes the scene takes a sequence number. A reply
// only touches the scene when its number is newer than the last one
// applied, so the scene always reflects the most recently submitted
// request, whatever order the replies arrive in. Log lines are appended
// regardless.
type session struct {
	scene   *scene.Synchronizer
	log     *termlog.Log
	logger  *zap.Logger
	seq     uint64
	applied uint64
}

type submission struct {
	Seq        uint64
	Code       string
	Persistent bool
}

func newSession(sync *scene.Synchronizer, log *termlog.Log, logger *zap.Logger) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &session{scene: sync, log: log, logger: logger.Named("session")}
}

func (s *session) next() uint64 {
	s.seq++
	return s.seq
}

// say appends a line. Persistent lines ignore ttl.
func (s *session) say(text string, sev termlog.Severity, ttl time.Duration, persistent bool) termlog.LineRef {
	if persistent {
		ttl = 0
	}
	return s.log.Append(text, sev, ttl)
}

func (s *session) greet() {
	s.say("COMPAS Web Viewport ready.", termlog.SeveritySuccess, successTTL, false)
	s.say("Type Python code → geometry appears automatically.", termlog.SeverityOutput, outputTTL, false)
	s.say("Text disappears after 3 seconds.", termlog.SeverityOutput, outputTTL, false)
}

// submit echoes the command immediately so the user sees it before the
// reply arrives.
func (s *session) submit(code string, persistent bool) submission {
	sub := submission{Seq: s.next(), Code: code, Persistent: persistent}
	s.say(commandEcho(code), termlog.SeverityCommand, termlog.LineLifetime, persistent)
	return sub
}

// commandEcho is the prompt line shown for a submission. Multi-line code
// is shown by its first non-blank line.
func commandEcho(code string) string {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	if len(lines) <= 1 {
		return ">>> " + strings.TrimSpace(code)
	}
	return fmt.Sprintf(">>> %s … (+%d lines)", strings.TrimSpace(lines[0]), len(lines)-1)
}

// complete reports an executor reply. It returns the reconcile report and
// whether the scene was replaced.
func (s *session) complete(sub submission, result executor.Result, err error) (scene.Report, bool) {
	if err != nil {
		s.fail(err, sub.Persistent)
		return scene.Report{}, false
	}

	if sub.Persistent {
		if out := strings.TrimRight(result.Output, "\n"); strings.TrimSpace(out) != "" {
			s.say(out, termlog.SeverityOutput, 0, true)
		}
		if result.Value != "" {
			s.say(result.Value, termlog.SeverityOutput, 0, true)
		}
	} else {
		for _, line := range strings.Split(strings.TrimSpace(result.Output), "\n") {
			if strings.TrimSpace(line) != "" {
				s.say(line, termlog.SeverityOutput, outputTTL, false)
			}
		}
		if result.Value != "" {
			s.say("= "+result.Value, termlog.SeverityOutput, outputTTL, false)
		}
	}

	report, ok := s.replace(sub.Seq, result.Objects)
	if !ok {
		return report, false
	}
	s.notes(report, sub.Persistent)
	count := len(result.Objects)
	if sub.Persistent {
		s.say(fmt.Sprintf("Scene updated with %d object(s)", count), termlog.SeverityOutput, 0, true)
	} else if count > 0 {
		s.say(fmt.Sprintf("✓ %d object(s) added", count), termlog.SeveritySuccess, successTTL, false)
	}
	return report, true
}

// fail reports an executor error. Application errors carry the server's
// message; anything else is a transport failure.
func (s *session) fail(err error, persistent bool) {
	var appErr *apiclient.ApplicationError
	if errors.As(err, &appErr) {
		if persistent {
			s.say(appErr.Message, termlog.SeverityError, 0, true)
			return
		}
		s.say("Error: "+appErr.Message, termlog.SeverityError, termlog.DefaultTTL(termlog.SeverityError), false)
		return
	}
	s.say("Network error: "+err.Error(), termlog.SeverityError, termlog.DefaultTTL(termlog.SeverityError), persistent)
}

// replace swaps in a complete scene unless a newer update already landed.
func (s *session) replace(seq uint64, objects []scene.Descriptor) (scene.Report, bool) {
	if seq <= s.applied {
		s.logger.Debug("stale scene update dropped", zap.Uint64("seq", seq), zap.Uint64("applied", s.applied))
		return scene.Report{}, false
	}
	s.applied = seq
	return s.scene.ReconcileFullReplace(objects), true
}

// merge adds objects not yet shown. It is not sequence checked: it never
// removes anything, so an old reply cannot undo a newer one.
func (s *session) merge(objects []scene.Descriptor) scene.Report {
	report := s.scene.ReconcileIncremental(objects)
	s.notes(report, false)
	return report
}

// teardown drops the whole scene, unless a newer update already landed.
func (s *session) teardown(seq uint64) bool {
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.scene.Teardown()
	return true
}

func (s *session) notes(report scene.Report, persistent bool) {
	for _, note := range report.Notes() {
		s.say(note, termlog.SeverityError, termlog.DefaultTTL(termlog.SeverityError), persistent)
	}
}
