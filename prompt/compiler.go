// Package prompt compiles a PreferenceSet and the persona's known memory facts
// into the instruction text handed to the realtime-voice model.
//
// Compilation is a pure function of its inputs: identical inputs always
// produce byte-identical output.
package prompt

import (
	"strings"

	"github.com/hupe1980/parlance/core"
	"github.com/hupe1980/parlance/registry"
)

// Section headers. Exported so callers and tests can locate sections without
// duplicating literals.
const (
	MemoryHeader   = "**What You Remember About This Learner:**"
	LanguageHeader = "**Target Language:**"
	StyleHeader    = "**Conversation Style:**"
	SpeedHeader    = "**Speaking Speed:**"
	LevelHeader    = "**Language Level:**"
	RoleHeader     = "**Your Role:**"
	FlowHeader     = "**Conversation Flow:**"
)

const memoryDirective = "Use these memories naturally when they fit the conversation, such as following up on something the learner told you before. Do not list them back to the learner."

// Compile builds the instruction text for prefs. Sections appear in a fixed
// order: persona base text, memories (only when facts is non-empty), target
// language mandate, style, speed, level, then role and flow directives.
func Compile(reg *registry.Registry, prefs core.PreferenceSet, facts []core.MemoryFact) string {
	return CompileTexts(reg, prefs, core.FactTexts(facts))
}

// CompileTexts is Compile for callers that only hold fact texts.
func CompileTexts(reg *registry.Registry, prefs core.PreferenceSet, memories []string) string {
	if reg == nil {
		reg = registry.Default()
	}
	res := reg.Resolve(prefs)

	var b strings.Builder
	b.WriteString(res.Persona.BasePrompt)

	if len(memories) > 0 {
		section(&b, MemoryHeader)
		for _, m := range memories {
			b.WriteString("- ")
			b.WriteString(m)
			b.WriteString("\n")
		}
		b.WriteString(memoryDirective)
	}

	section(&b, LanguageHeader)
	b.WriteString(languageMandate(res.LanguageName))

	section(&b, StyleHeader)
	b.WriteString(res.Style)

	section(&b, SpeedHeader)
	b.WriteString(res.Speed)

	section(&b, LevelHeader)
	b.WriteString(res.Level)

	section(&b, RoleHeader)
	b.WriteString(roleDirectives)

	section(&b, FlowHeader)
	b.WriteString(flowDirectives)
	b.WriteString("\n\nBegin the conversation now with a warm greeting in ")
	b.WriteString(res.LanguageName)
	b.WriteString("!")

	return b.String()
}

// LanguageMandate returns the unconditional target-language directive for a
// resolved language display name.
func LanguageMandate(languageName string) string { return languageMandate(languageName) }

func languageMandate(name string) string {
	return "Conduct this entire conversation in " + name + ". " +
		"Every greeting, question, answer and correction must be in " + name + ". " +
		"Only use another language if the learner explicitly asks for a translation, then return to " + name + " immediately."
}

func section(b *strings.Builder, header string) {
	b.WriteString("\n\n")
	b.WriteString(header)
	b.WriteString("\n")
}

const roleDirectives = `- Engage the learner in natural conversation on various topics
- Gently correct mistakes without interrupting the flow
- Ask follow-up questions to encourage the learner to speak more
- Introduce new vocabulary and expressions appropriate to their level
- Provide context and explanations when introducing new concepts
- Be encouraging and supportive of their efforts
- Keep the conversation flowing naturally - don't make it feel like a formal lesson`

const flowDirectives = `1. Start with a friendly greeting and ask how they're doing
2. Guide the conversation through interesting topics
3. Listen actively and respond naturally
4. Offer corrections and explanations when helpful
5. Keep them engaged and speaking as much as possible`
