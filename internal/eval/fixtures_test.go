package eval_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/go-scm/go-scm/pkg/goscm"
)

// TestFixtures snapshot-tests a table of short Scheme programs end to end
// (reader → macro expander → evaluator → printer): a table of {name,
// source} driven through go-snaps.MatchSnapshot, with each program's
// expected output captured as a snapshot on first run rather than kept as
// on-disk fixture pairs, since this interpreter's test corpus is small
// enough to live inline.
func TestFixtures(t *testing.T) {
	cases := []struct {
		name string
		src string
	}{
		{"arithmetic", `(+ 1 2 (* 3 4))`},
		{"exact-rational", `(/ 1 3)`},
		{"tail-recursive-loop", `
			(define (count-to n acc)
			  (if (= n 0) acc (count-to (- n 1) (+ acc 1))))
			(count-to 100000 0)`},
		{"call-cc-escape", `
			(+ 1 (call/cc (lambda (k) (k 10) 99)))`},
		{"dynamic-wind-order", `
			(define log '())
			(define (note x) (set! log (cons x log)))
			(dynamic-wind
			  (lambda () (note 'before))
			  (lambda () (note 'during))
			  (lambda () (note 'after)))
			(reverse log)`},
		{"let-values", `
			(let-values (((q r) (truncate/ 7 2))) (list q r))`},
		{"string-append", `(string-append "foo" "bar" "baz")`},
		{"vector-map", `(vector-map + #(1 2 3) #(10 20 30))`},
		{"quasiquote-splice", `
			(let ((xs '(2 3))) `+"`"+`(1,@xs 4))`},
		{"guard-catches", `
			(guard (e (#t (list 'caught (error-object-message e))))
			  (error "boom" 1 2))`},
		{"define-record-type", `
			(define-record-type point (make-point x y) point?
			  (x point-x) (y point-y))
			(let ((p (make-point 3 4))) (list (point-x p) (point-y p)))`},
		{"promise-force", `
			(define p (delay (begin 1)))
			(list (force p) (force p))`},
		{"case-lambda", `
			(define f (case-lambda
			  ((x) (list 'one x))
			  ((x y) (list 'two x y))))
			(list (f 1) (f 1 2))`},
		{"named-let", `
			(let loop ((i 0) (acc '()))
			  (if (= i 5) (reverse acc) (loop (+ i 1) (cons i acc))))`},
		{"with-output-to-string", `
			(with-output-to-string (lambda () (display "hi ") (display 42)))`},
		{"call-with-output-string", `
			(call-with-output-string (lambda (p) (write 'sym p) (display " " p) (display 7 p)))`},
		{"future-get", `
			(future-get (future (lambda () (+ 20 22))))`},
		{"atomic-counter", `
			(let ((c (make-atomic-counter)))
			  (atomic-counter-add! c 10)
			  (atomic-counter-add! c 5)
			  (atomic-counter-value c))`},
		{"channel-send-recv", `
			(let ((ch (make-channel 4)))
			  (channel-send! ch 'a)
			  (channel-send! ch 'b)
			  (list (channel-recv! ch) (channel-recv! ch)))`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := goscm.New()
			if err != nil {
				t.Fatalf("goscm.New: %v", err)
			}
			out, err := engine.EvalString(tc.src)
			if err != nil {
				snaps.MatchSnapshot(t, tc.name+"_error", err.Error())
				return
			}
			snaps.MatchSnapshot(t, tc.name+"_result", out)
		})
	}
}
