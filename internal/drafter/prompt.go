package drafter

import (
	"fmt"
	"strings"

	"github.com/aria-ai/recruiter-agent/internal/model"
)

func (d *LLMDrafter) systemPrompt(stage model.Stage, channel model.Channel) string {
	var b strings.Builder

	base := d.prompts.SystemPrompt
	if base == "" {
		base = "You are a professional assistant handling recruiter correspondence on behalf of a software engineer."
	}
	b.WriteString(base)

	p := d.profile
	if p.Personal.Name != "" {
		fmt.Fprintf(&b, "\n\nCandidate profile:\n")
		fmt.Fprintf(&b, "- Name: %s\n", p.Personal.Name)
		fmt.Fprintf(&b, "- Title: %s\n", p.Personal.CurrentTitle)
		fmt.Fprintf(&b, "- Experience: %d years\n", p.Personal.YearsExperience)
		if len(p.Skills.Primary) > 0 {
			fmt.Fprintf(&b, "- Skills: %s\n", strings.Join(p.Skills.Primary, ", "))
		}
		if p.Preferences.SalaryRange.Minimum > 0 {
			fmt.Fprintf(&b, "- Salary range: $%d - $%d\n",
				p.Preferences.SalaryRange.Minimum, p.Preferences.SalaryRange.Target)
		}
		if p.Preferences.WorkArrangement != "" {
			fmt.Fprintf(&b, "- Work preference: %s\n", p.Preferences.WorkArrangement)
		}
	}

	fmt.Fprintf(&b, "\nCurrent stage: %s\nChannel: %s", stage, channel)
	if channel == model.ChannelSMS {
		b.WriteString(" (keep the response brief, 1-2 sentences)")
	}

	if stagePrompt := d.prompts.StagePrompts[string(stage)]; stagePrompt != "" {
		fmt.Fprintf(&b, "\n\nStage guidance:\n%s", stagePrompt)
	}

	return b.String()
}

func (d *LLMDrafter) userPrompt(req *Request) string {
	var b strings.Builder

	b.WriteString("Known information about this opportunity:\n")
	fmt.Fprintf(&b, "- Company: %s\n", orUnknown(req.Facts.Company))
	fmt.Fprintf(&b, "- Position: %s\n", orUnknown(req.Facts.Position))
	fmt.Fprintf(&b, "- Recruiter: %s\n", orUnknown(req.Facts.RecruiterName))
	fmt.Fprintf(&b, "- Work arrangement: %s\n", orUnknown(req.Facts.WorkArrangement))
	fmt.Fprintf(&b, "- Salary: %s\n", orUnknown(req.Facts.SalaryRange))

	if len(req.History) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, msg := range req.History {
			fmt.Fprintf(&b, "%s: %s\n", msg.Direction, truncate(msg.Content, 200))
		}
	}

	fmt.Fprintf(&b, "\nNew message from recruiter:\n%s\n", req.NewMessage)

	b.WriteString(`
Generate a professional response that addresses the recruiter's points,
gathers any missing critical information and protects the candidate's
interests. Also extract any new facts from the message.

Respond with JSON only:
{
  "response": "the reply text",
  "extracted_info": {
    "company": "", "position": "", "recruiter_name": "",
    "salary_range": "", "work_arrangement": ""
  },
  "next_stage": "initial_contact|information_gathering|screening|negotiation|scheduling|declined",
  "requires_escalation": false,
  "escalation_reason": "",
  "confidence": 0.85
}`)

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
