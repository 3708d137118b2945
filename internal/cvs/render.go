package cvs

import (
	"strings"
)

// Text renders the snapshot as a plain-text CV. Cover letters and job
// applications are not part of the CV body and are left out.
func (s *Snapshot) Text() string {
	var b strings.Builder

	line(&b, s.CV.Title)
	for _, c := range s.Contacts {
		line(&b, c.FullName, deref(c.Headline))
		line(&b, deref(c.Email), deref(c.Phone), deref(c.Website))
	}
	for _, l := range s.Locations {
		line(&b, deref(l.City), deref(l.Country))
	}
	for _, so := range s.Socials {
		line(&b, so.Social+": "+so.URL)
	}
	if s.CV.TargetRole != nil {
		line(&b, "Target role: "+*s.CV.TargetRole)
	}

	if s.CV.Summary != nil && strings.TrimSpace(*s.CV.Summary) != "" {
		heading(&b, "Summary")
		line(&b, *s.CV.Summary)
	}

	if len(s.Works) > 0 {
		heading(&b, "Experience")
		for _, w := range s.Works {
			end := deref(w.EndDate)
			if w.IsCurrent {
				end = "present"
			}
			line(&b, w.Position+" at "+w.Company, deref(w.Location), span(deref(w.StartDate), end))
			body(&b, w.Description)
		}
	}

	if len(s.Projects) > 0 {
		heading(&b, "Projects")
		for _, p := range s.Projects {
			line(&b, p.Name, deref(p.Role), span(deref(p.StartDate), deref(p.EndDate)), deref(p.URL))
			body(&b, p.Description)
		}
	}

	if len(s.Educations) > 0 {
		heading(&b, "Education")
		for _, e := range s.Educations {
			line(&b, e.Institution, deref(e.Degree), deref(e.Field), span(deref(e.StartDate), deref(e.EndDate)))
			body(&b, e.Description)
		}
	}

	if len(s.Skills) > 0 {
		heading(&b, "Skills")
		names := make([]string, 0, len(s.Skills))
		for _, sk := range s.Skills {
			if lvl := deref(sk.Level); lvl != "" {
				names = append(names, sk.Name+" ("+lvl+")")
				continue
			}
			names = append(names, sk.Name)
		}
		line(&b, strings.Join(names, ", "))
	}

	if len(s.Languages) > 0 {
		heading(&b, "Languages")
		for _, l := range s.Languages {
			line(&b, l.Name, deref(l.Proficiency))
		}
	}

	if len(s.Courses) > 0 {
		heading(&b, "Courses")
		for _, c := range s.Courses {
			line(&b, c.Name, deref(c.Institution), deref(c.CompletedAt))
		}
	}

	if len(s.Organizations) > 0 {
		heading(&b, "Organizations")
		for _, o := range s.Organizations {
			line(&b, o.Name, deref(o.Role), span(deref(o.StartDate), deref(o.EndDate)))
			body(&b, o.Description)
		}
	}

	return strings.TrimSpace(b.String())
}

func heading(b *strings.Builder, title string) {
	b.WriteString("\n")
	b.WriteString(strings.ToUpper(title))
	b.WriteString("\n")
}

// line writes the non-empty parts joined by " | ".
func line(b *strings.Builder, parts ...string) {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return
	}
	b.WriteString(strings.Join(kept, " | "))
	b.WriteString("\n")
}

func body(b *strings.Builder, text *string) {
	if text == nil {
		return
	}
	for _, l := range strings.Split(*text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			b.WriteString("  ")
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
}

func span(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	case start == "":
		return end
	}
	return start + " - " + end
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
