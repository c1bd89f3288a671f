// Package sitetest renders a small copy of the punchcard site for the static driver.
package sitetest

import (
	"fmt"
	"strings"
	"time"
)

// BaseURL is the root of the fake site.
const BaseURL = "https://punchcard.test/ut/"

// Slot is one block in a schedule column.
type Slot struct {
	Location string
	Text     string   // e.g. "2:00pm - 4:00pm 9/1/24 - 12/10/24"
	Options  []string // nil renders no select, i.e. the slot is taken
}

// Site holds the state rendered into the pages.
type Site struct {
	Locations []string
	// Month and Highlight describe the calendar shown on show_shifts.php.
	Month     time.Month
	Year      int
	Highlight int
	// Months lists the other months reachable through ?month=N links.
	Months   []time.Month
	Slots    []Slot
	MyShifts []string
	// LoginTarget is where the login form posts, relative to BaseURL.
	LoginTarget string
}

// New returns a site showing October 2024 with the 7th highlighted.
func New() *Site {
	return &Site{
		Locations:   []string{"LC-27a", "LC-27b", "LI-Circ", "LI-106", "SciLib"},
		Month:       time.October,
		Year:        2024,
		Highlight:   7,
		Months:      []time.Month{time.August, time.September, time.November, time.December},
		LoginTarget: "index.php",
	}
}

// Pages renders every page keyed by absolute URL.
func (s *Site) Pages() map[string]string {
	pages := map[string]string{
		BaseURL:                       s.loginPage(),
		BaseURL + "index.php":         s.homePage(),
		BaseURL + "shift_confirm.php": confirmPage(),
		BaseURL + "show_shifts.php":   s.schedulePage(s.Month, s.Highlight),
	}
	for _, m := range s.Months {
		pages[fmt.Sprintf("%sshow_shifts.php?month=%d", BaseURL, int(m))] = s.schedulePage(m, 1)
	}
	return pages
}

func page(body string) string {
	return `<html><head><title>Punchcard</title></head><body><div id="its_logo">ITS</div>` + body + `</body></html>`
}

func (s *Site) loginPage() string {
	return page(fmt.Sprintf(`<form id="loginForm" action="%s" method="post">
<input id="user" name="user" type="text">
<input id="pass" name="pass" type="password">
<input type="submit" value="Log In">
</form>`, s.LoginTarget))
}

func (s *Site) homePage() string {
	var b strings.Builder
	b.WriteString(`<div id="index_my_shifts"><h3>My Shifts</h3>`)
	for _, text := range s.MyShifts {
		fmt.Fprintf(&b, `<div class="index_perm_shift">%s</div>`, text)
	}
	b.WriteString(`</div>`)
	return page(b.String())
}

func confirmPage() string {
	return page(`<p>Confirm the change below.</p>
<form id="confirm_form" action="show_shifts.php" method="post"><input type="submit" value="Confirm"></form>`)
}

func monthLink(m time.Month) string {
	return fmt.Sprintf("show_shifts.php?month=%d", int(m))
}

func (s *Site) schedulePage(month time.Month, highlight int) string {
	var b strings.Builder

	prev := month - 1
	next := month + 1
	fmt.Fprintf(&b, `<div id="right_menu"><h4><a href="%s">&laquo;</a> %s %d <a href="%s">&raquo;</a> <a href="show_shifts.php">Today</a></h4>`,
		monthLink(prev), month, s.Year, monthLink(next))
	b.WriteString(`<table><tbody><tr><th>Su</th><th>M</th><th>Tu</th><th>W</th><th>Th</th><th>F</th><th>Sa</th></tr>`)

	first := time.Date(s.Year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	lead := int(first.Weekday())
	prevLast := first.AddDate(0, 0, -1).Day()

	cells := make([]string, 0, 42)
	for i := lead - 1; i >= 0; i-- {
		day := prevLast - i
		cells = append(cells, fmt.Sprintf(`<td class="prevMonth"><a href="%s#d%d">%d</a></td>`, monthLink(prev), day, day))
	}
	for day := 1; day <= last; day++ {
		class := ""
		if day == highlight {
			class = ` class="highlighted"`
		}
		cells = append(cells, fmt.Sprintf(`<td%s><a href="#d%d">%d</a></td>`, class, day, day))
	}
	for day := 1; len(cells)%7 != 0; day++ {
		cells = append(cells, fmt.Sprintf(`<td class="nextMonth"><a href="%s#d%d">%d</a></td>`, monthLink(next), day, day))
	}
	for i := 0; i < len(cells); i += 7 {
		b.WriteString("<tr>" + strings.Join(cells[i:i+7], "") + "</tr>")
	}
	b.WriteString(`</tbody></table></div>`)

	b.WriteString(`<form id="shift_form" action="shift_confirm.php" method="post"><div id="shifts_by_day"><table><tbody><tr><th>Time</th>`)
	for _, loc := range s.Locations {
		fmt.Fprintf(&b, `<th>%s</th>`, loc)
	}
	b.WriteString(`</tr><tr><td>8am-10pm</td>`)
	for _, loc := range s.Locations {
		b.WriteString("<td>")
		for _, slot := range s.Slots {
			if slot.Location != loc {
				continue
			}
			b.WriteString(`<div class="shift_block">` + slot.Text)
			if slot.Options != nil {
				b.WriteString(`<select name="action"><option value="">--</option>`)
				for _, opt := range slot.Options {
					fmt.Fprintf(&b, `<option value="%s">%s</option>`, strings.ReplaceAll(opt, " ", ""), opt)
				}
				b.WriteString(`</select>`)
			}
			b.WriteString(`</div>`)
		}
		b.WriteString("</td>")
	}
	b.WriteString(`</tr></tbody></table></div><input type="submit" value="Submit Changes"></form>`)
	return page(b.String())
}
