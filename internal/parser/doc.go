// Package parser turns strace text output into TraceEvents.
//
// Every line yields a Result tagged Parsed, Skipped, Malformed or Pending; the
// parser never fails a whole file. The accepted grammar is:
//
//	line      = [ pid SP ] [ timestamp SP ] body
//	pid       = DIGIT+ | "[pid" SP+ DIGIT+ "]"
//	timestamp = HH ":" MM ":" SS [ "." DIGIT+ ]     ; strace -t / -tt
//	          | DIGIT+ "." DIGIT+                   ; strace -ttt, or -r deltas
//	body      = call | unfinished | resumed | signal | exit | notice
//	call      = name "(" args ")" SP* "=" SP* ret [ SP errno [ SP "(" text ")" ] ] [ SP "<" secs ">" ]
//	unfinished= name "(" partial-args SP* "<unfinished ...>"
//	resumed   = "<..." SP name SP "resumed>" rest-of-call
//	signal    = "---" ... "---"
//	exit      = "+++" ... "+++"
//	notice    = "strace:" ...
//	ret       = "?" | [ "-" ] DIGIT+ [ "<" decoration ">" ] | "0x" HEXDIGIT+
//	args      = arg *( "," arg )                   ; split on top-level commas only
//
// Arguments keep their raw text. Quoted strings may contain escapes and may be
// followed by "..." when strace truncated them (-s). A comma inside quotes, a
// /* comment */, or any (), [] or {} group never splits an argument.
//
// An unfinished call is held until the matching resumed line of the same pid
// and syscall name arrives; the two halves form one event that carries the
// line number and timestamp of the first half. A resumed line with no pending
// start is skipped.
//
// A line that does not match the grammar is Malformed. For a syscall in the
// fixed table (see package syscalls) a missing return, unbalanced argument list
// or too few arguments is also Malformed. Other syscalls are Parsed with
// Known=false and carry whatever could be recovered.
package parser
