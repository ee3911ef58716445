package memory

import (
	"fmt"
	"strings"
)

// FormatForContext renders the tiered memory as the deterministic text block
// handed to the context assembler. Empty fields are omitted entirely; the
// block lists at most 10 people and 5 open threads.
func FormatForContext(hot *Hot, people []PersonMemory) string {
	var b strings.Builder

	if hot != nil && hot.Core != nil {
		formatCore(&b, hot.Core)
	}
	if hot != nil && hot.Relationship != nil {
		formatRelationship(&b, hot.Relationship)
	}
	formatPeople(&b, people)
	if hot != nil {
		formatThreads(&b, hot.OpenThreads)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatCore(b *strings.Builder, core *CoreMemory) {
	b.WriteString("ABOUT HIM:\n")
	if core.Name != "" {
		fmt.Fprintf(b, "Name: %s\n", core.Name)
	}
	if core.Age > 0 {
		fmt.Fprintf(b, "Age: %d\n", core.Age)
	}
	if core.Location != "" {
		fmt.Fprintf(b, "Location: %s\n", core.Location)
	}
	if job := formatJob(core.Job); job != "" {
		fmt.Fprintf(b, "Work: %s\n", job)
	}
	if core.RelationshipStatus != "" {
		fmt.Fprintf(b, "Relationship status: %s\n", core.RelationshipStatus)
	}
	writeList(b, "Interests", core.Interests)
	writeList(b, "Values", core.Values)
	if style := formatStyle(core.CommunicationStyle); style != "" {
		fmt.Fprintf(b, "How he communicates: %s\n", style)
	}
	writeList(b, "Likes", core.Preferences.Likes)
	writeList(b, "Dislikes", core.Preferences.Dislikes)
	writeList(b, "Goals", core.Goals)
	writeList(b, "Quirks", core.Quirks)
	b.WriteString("\n")
}

func formatRelationship(b *strings.Builder, rel *RelationshipMemory) {
	b.WriteString("US:\n")
	if rel.Vibe != "" {
		fmt.Fprintf(b, "Vibe: %s\n", rel.Vibe)
	}
	if rel.FlirtLevel != "" {
		fmt.Fprintf(b, "Flirt level: %s\n", rel.FlirtLevel)
	}
	writeList(b, "Inside jokes", rel.InsideJokes)
	writeList(b, "Keeps coming back to", rel.RecurringTopics)
	writeList(b, "Boundaries", rel.Boundaries)
	writeList(b, "Highlights", rel.Highlights)
	writeList(b, "Patterns", rel.Patterns)
	b.WriteString("\n")
}

func formatPeople(b *strings.Builder, people []PersonMemory) {
	if len(people) == 0 {
		return
	}
	if len(people) > contextPeopleLimit {
		people = people[:contextPeopleLimit]
	}
	b.WriteString("PEOPLE IN HIS LIFE:\n")
	for _, person := range people {
		line := person.Name
		if person.Relationship != "" {
			line += " (" + person.Relationship + ")"
		}
		if len(person.KeyFacts) > 0 {
			line += ": " + strings.Join(person.KeyFacts, "; ")
		}
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("\n")
}

func formatThreads(b *strings.Builder, threads []ActiveThread) {
	if len(threads) == 0 {
		return
	}
	if len(threads) > contextThreadsLimit {
		threads = threads[:contextThreadsLimit]
	}
	b.WriteString("OPEN THREADS (things to maybe follow up on):\n")
	for _, thread := range threads {
		line := thread.Topic
		if thread.Context != "" {
			line += " — " + thread.Context
		}
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("\n")
}

func formatJob(job Job) string {
	var parts []string
	if job.Title != "" {
		parts = append(parts, job.Title)
	}
	if job.Company != "" {
		parts = append(parts, "at "+job.Company)
	}
	if job.Industry != "" {
		parts = append(parts, "("+job.Industry+")")
	}
	joined := strings.Join(parts, " ")
	if job.Notes != "" {
		if joined != "" {
			joined += " — "
		}
		joined += job.Notes
	}
	return joined
}

func formatStyle(style CommunicationStyle) string {
	var parts []string
	if style.Humor != "" {
		parts = append(parts, "humor: "+style.Humor)
	}
	if style.Depth != "" {
		parts = append(parts, "depth: "+style.Depth)
	}
	if style.Pace != "" {
		parts = append(parts, "pace: "+style.Pace)
	}
	if style.Notes != "" {
		parts = append(parts, style.Notes)
	}
	return strings.Join(parts, ", ")
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
}
