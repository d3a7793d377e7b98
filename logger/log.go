// This file is part of Imagingpipe.
//
// Imagingpipe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Imagingpipe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Imagingpipe.  If not, see <https://www.gnu.org/licenses/>.

package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Entry represents a single line/entry in the log
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	repeated  int
}

func (e *Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s: %s", e.Tag, e.Detail))
	if e.repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

// Logger is a ring of log entries. Most code will use the central logger
// through the package level functions but a separate instance can be created
// with NewLogger(), which is useful for testing.
type Logger struct {
	crit sync.Mutex

	maxEntries int
	entries    []Entry

	// entries are echoed to this writer as they are made. nil if echoing is
	// disabled
	echo io.Writer

	// the number of entries at the time of the most recent call to
	// WriteRecent()
	recentStart int
}

// NewLogger is the preferred method of initialisation for the Logger type.
func NewLogger(maxEntries int) *Logger {
	return &Logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

// detail strings can be of various types. errors and fmt.Stringer types are
// converted with their natural methods
func detailString(detail any) string {
	switch d := detail.(type) {
	case string:
		return d
	case error:
		return d.Error()
	case fmt.Stringer:
		return d.String()
	}
	return fmt.Sprintf("%v", detail)
}

// Log adds an entry to the logger if the permission allows it.
func (l *Logger) Log(perm Permission, tag string, detail any) {
	if perm == nil || !(perm == Allow || perm.AllowLogging()) {
		return
	}
	l.log(tag, detailString(detail))
}

// Logf adds a formatted entry to the logger if the permission allows it.
func (l *Logger) Logf(perm Permission, tag string, detail string, args ...any) {
	if perm == nil || !(perm == Allow || perm.AllowLogging()) {
		return
	}
	l.log(tag, fmt.Sprintf(detail, args...))
}

func (l *Logger) log(tag, detail string) {
	l.crit.Lock()
	defer l.crit.Unlock()

	// remove all newline characters from tag and detail string
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	var e *Entry
	if len(l.entries) > 0 {
		e = &l.entries[len(l.entries)-1]
	}

	if e == nil || detail != e.Detail || tag != e.Tag {
		l.entries = append(l.entries, Entry{Timestamp: time.Now(), Tag: tag, Detail: detail})
		e = &l.entries[len(l.entries)-1]
	} else {
		e.repeated++
		e.Timestamp = time.Now()
	}

	// mainain maximum length
	if len(l.entries) > l.maxEntries {
		trim := len(l.entries) - l.maxEntries
		l.entries = l.entries[trim:]
		l.recentStart -= trim
		if l.recentStart < 0 {
			l.recentStart = 0
		}
		e = &l.entries[len(l.entries)-1]
	}

	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

// Clear all entries from the logger.
func (l *Logger) Clear() {
	l.crit.Lock()
	defer l.crit.Unlock()
	l.entries = l.entries[:0]
	l.recentStart = 0
}

// Write contents of the logger to io.Writer.
func (l *Logger) Write(output io.Writer) bool {
	l.crit.Lock()
	defer l.crit.Unlock()

	if len(l.entries) == 0 {
		return false
	}
	for _, e := range l.entries {
		io.WriteString(output, e.String())
	}
	return true
}

// WriteRecent writes only the entries added since the last call to
// WriteRecent.
func (l *Logger) WriteRecent(output io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()

	for _, e := range l.entries[l.recentStart:] {
		io.WriteString(output, e.String())
	}
	l.recentStart = len(l.entries)
}

// Tail writes the last N entries to io.Writer.
func (l *Logger) Tail(output io.Writer, number int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	// cap number to the number of entries
	if number > len(l.entries) {
		number = len(l.entries)
	}
	if number < 0 {
		number = 0
	}

	for _, e := range l.entries[len(l.entries)-number:] {
		io.WriteString(output, e.String())
	}
}

// SetEcho prints log entries to io.Writer as they are made. A nil writer
// stops echoing. If writeRecent is true then the entries made since the last
// call to WriteRecent() are written immediately.
func (l *Logger) SetEcho(output io.Writer, writeRecent bool) {
	if writeRecent && output != nil {
		l.WriteRecent(output)
	}

	l.crit.Lock()
	defer l.crit.Unlock()
	l.echo = output
}

// BorrowLog gives the provided function the critial section and access to the
// list of log entries.
func (l *Logger) BorrowLog(f func([]Entry)) {
	l.crit.Lock()
	defer l.crit.Unlock()
	f(l.entries)
}
