package student

import (
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/ayalat/maarekhet/core"
)

// maxConcurrentSends caps in-flight weekly report emails per run; excess work
// queues until a slot frees.
const maxConcurrentSends = 5

const defaultReportBody = `Hi,

Attached is your daughter's attendance for the week.

Thank you,`

const reportSubject = "Attendance Report"

var paragraphSplitRegex = regexp.MustCompile(`\n{2,}`)

// ReportOptions customizes a weekly report run. BodyText replaces the default
// greeting; Title, when non-empty, is appended to each student's heading.
type ReportOptions struct {
	BodyText string `json:"body_text"`
	Title    string `json:"title"`
}

// SendWeeklyReports builds and sends one attendance-summary email per active
// student, at most maxConcurrentSends in flight. Students with nothing
// recorded this week are skipped. A failed send is logged and never blocks
// the other recipients; the caller only learns that the run completed.
func (svc *service) SendWeeklyReports(ctx context.Context, opts ReportOptions) error {
	active := true
	students, err := svc.repo.FilterStudents(ctx, QueryFilter{IsActive: &active})
	if err != nil {
		return errors.Wrap(err, "loading active students")
	}

	bodyText := core.CleanString(opts.BodyText)
	if bodyText == "" {
		bodyText = defaultReportBody
	}
	title := core.CleanString(opts.Title)
	intro := buildHTMLIntro(bodyText)

	sem := semaphore.NewWeighted(maxConcurrentSends)
	var wg sync.WaitGroup
	for i := range students {
		st := students[i]
		if err = sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return errors.Wrap(err, "acquiring send slot")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			svc.sendWeeklyReport(st, bodyText, intro, title)
		}()
	}
	wg.Wait()
	return nil
}

func (svc *service) sendWeeklyReport(st Student, bodyText, intro, title string) {
	maxLessons := st.WeekAttendance.MaxSlotCount()
	if maxLessons == 0 {
		svc.logger.Info(fmt.Sprintf("no attendance data for %s, skipping email", st.Name))
		return
	}

	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: st.Name, Address: st.ParentEmail}},
		Subject:     reportSubject,
		TextContent: bodyText + "\n\n(Attendance table is shown in the email body.)",
		HTMLContent: buildReportTable(st, intro, title, maxLessons),
	}
	if err := svc.mailSvc.SendMessage(msg); err != nil {
		// one failed recipient must not abort the batch
		svc.logger.Error(fmt.Sprintf("sending weekly report to %s: %v", st.ParentEmail, err), err)
	}
}

// buildHTMLIntro turns the plain body text into paragraphs, preserving single
// line breaks within each.
func buildHTMLIntro(bodyText string) string {
	paragraphs := paragraphSplitRegex.Split(bodyText, -1)
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(template.HTMLEscapeString(p), "\n", "<br>"))
		b.WriteString("</p>\n")
	}
	return b.String()
}

// buildReportTable renders the weekly grid: rows are the five weekdays,
// columns slot 1..maxLessons, each cell the single-character status code or
// blank when nothing is recorded at that slot.
func buildReportTable(st Student, intro, title string, maxLessons int) string {
	heading := st.Name
	if title != "" {
		heading += " - " + title
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString(`<div style="width:100%; text-align:center; margin-top:20px;">`)
	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0" style="border-collapse:collapse; margin-left:auto; margin-right:auto; text-align:center; font-family:Arial, sans-serif;">`)
	b.WriteString("<thead><tr>")
	fmt.Fprintf(&b, `<th colspan="%d" style="text-align:center; font-size:16px; padding:8px; font-weight:normal;">%s</th>`,
		maxLessons+1, template.HTMLEscapeString(heading))
	b.WriteString("</tr><tr>")
	b.WriteString(`<th style="font-weight:normal;">Day</th>`)
	for i := 0; i < maxLessons; i++ {
		fmt.Fprintf(&b, `<th style="font-weight:normal;">Lesson %d</th>`, i+1)
	}
	b.WriteString("</tr></thead><tbody>")

	for _, day := range core.Days {
		b.WriteString("<tr>")
		fmt.Fprintf(&b, "<td>%s</td>", day.Label())
		entries := st.WeekAttendance.Day(day)
		for i := 0; i < maxLessons; i++ {
			fmt.Fprintf(&b, "<td>%s</td>", symbolAt(entries, i))
		}
		b.WriteString("</tr>")
	}

	b.WriteString("</tbody></table></div>")
	return b.String()
}

// symbolAt matches on slot index alone: the grid shows whatever lesson was
// held at that position.
func symbolAt(entries []AttendanceEntry, slotIndex int) string {
	for _, e := range entries {
		if e.SlotIndex == slotIndex {
			return e.Status.Symbol()
		}
	}
	return ""
}
