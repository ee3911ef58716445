package prompts

import (
	_ "embed"
)

// Static guidance blocks appended to the assembled context depending on the
// scenario. These take no data, so they are embedded as-is.

//go:embed templates/onboarding_guidance.tmpl
var OnboardingGuidance string

//go:embed templates/steady_guidance.tmpl
var SteadyGuidance string

//go:embed templates/morning_briefing_prompt.tmpl
var MorningBriefingPrompt string

//go:embed templates/midday_check_prompt.tmpl
var MiddayCheckPrompt string

//go:embed templates/evening_synthesis_prompt.tmpl
var EveningSynthesisPrompt string

//go:embed templates/awareness_check_prompt.tmpl
var AwarenessCheckPrompt string

//go:embed templates/network_nudge_prompt.tmpl
var NetworkNudgeGuidance string

//go:embed templates/library_guidance.tmpl
var LibraryGuidance string
