package summary

import (
	"strings"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/model"
	"github.com/hupe1980/parlance/registry"
)

// SystemPrompt is sent as the system message of every summary request.
const SystemPrompt = "You are a helpful language learning coach providing constructive feedback on practice conversations."

// MaxNewMemories caps the number of memory candidates kept from a response.
const MaxNewMemories = 10

// Headers used in the rendered request.
const (
	ConversationHeader   = "**Conversation:**"
	ExistingMemoryHeader = "**What You Already Remember About This Learner:**"
)

// NonRepetitionDirective follows the existing memories in the request.
const NonRepetitionDirective = "These facts are already stored. Never repeat any of them in your memories block. " +
	"Only include facts that are genuinely new, or an explicit update when something above has changed."

const (
	learnerLabel = "Learner"
	tutorLabel   = "Tutor"
)

// RenderTranscript renders the transcript as role-labeled lines in sequence
// order, separated by blank lines.
func RenderTranscript(tr core.Transcript) string {
	lines := make([]string, 0, len(tr))
	for _, turn := range tr {
		label := learnerLabel
		if turn.Role == core.RoleAssistant {
			label = tutorLabel
		}
		lines = append(lines, label+": "+turn.Text)
	}
	return strings.Join(lines, "\n\n")
}

// BuildPrompt renders the user message of a summary request.
func BuildPrompt(reg *registry.Registry, tr core.Transcript, prefs core.PreferenceSet, existing []string) string {
	if reg == nil {
		reg = registry.Default()
	}
	language := reg.ResolveLanguageName(prefs.Language)

	var b strings.Builder
	b.WriteString("You are a language learning coach reviewing a ")
	b.WriteString(language)
	b.WriteString(" practice conversation. Analyze the following conversation and provide helpful feedback.\n\n")

	b.WriteString(ConversationHeader)
	b.WriteString("\n")
	b.WriteString(RenderTranscript(tr))
	b.WriteString("\n\n")

	b.WriteString("**Target Language:** ")
	b.WriteString(language)
	b.WriteString("\n**Learner's Level:** ")
	b.WriteString(orDefault(string(prefs.Level), registry.TableLevel.DefaultKey()))
	b.WriteString("\n**Practice Style:** ")
	b.WriteString(orDefault(string(prefs.Style), registry.TableStyle.DefaultKey()))
	b.WriteString("\n\n")

	if len(existing) > 0 {
		b.WriteString(ExistingMemoryHeader)
		b.WriteString("\n")
		for _, m := range existing {
			b.WriteString("- ")
			b.WriteString(m)
			b.WriteString("\n")
		}
		b.WriteString(NonRepetitionDirective)
		b.WriteString("\n\n")
	}

	b.WriteString(reportFormat)
	b.WriteString("\n\n")
	b.WriteString(memoryRequest)
	return b.String()
}

// BuildRequest wraps BuildPrompt into a model request.
func BuildRequest(reg *registry.Registry, tr core.Transcript, prefs core.PreferenceSet, existing []string) model.Request {
	return model.Request{
		Instructions: SystemPrompt,
		Messages: []model.Message{
			{Role: model.RoleUser, Text: BuildPrompt(reg, tr, prefs, existing)},
		},
	}
}

func orDefault(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}

const reportFormat = `**Provide feedback in the following format:**

## Summary
[Brief overview of the session - what topics were discussed, overall flow]

## What You Learned
- [New vocabulary, phrases, or expressions introduced]
- [Grammar points covered]
- [Cultural insights or contextual knowledge]

## Areas of Strength
- [Things the learner did well]
- [Good usage examples from the conversation]

## Areas to Work On
- [Specific mistakes or areas for improvement]
- [Suggestions for practice]
- [Resources or tips for improvement]

## Vocabulary Review
[List key words/phrases from this session with brief definitions]

Keep the tone encouraging and constructive. Focus on actionable insights the learner can use to improve.`

const memoryRequest = "**Memories:**\n" +
	"After the report, list up to 10 new facts about the learner that would help personalize future conversations " +
	"(interests, personal details, goals, recurring difficulties). Keep each fact under 100 characters. " +
	"End your response with a fenced JSON block and nothing after it, shaped exactly like this:\n\n" +
	"```json\n{\"memories\": [\"fact one\", \"fact two\"]}\n```\n\n" +
	"If there is nothing new to remember, return {\"memories\": []} in the block."
