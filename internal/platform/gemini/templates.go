package gemini

// Prompt templates for each text stage of the pipeline. Every prompt demands
// strict JSON so responses unmarshal directly into the stage's schema.

const analyzePromptText = `You are a podcast producer reviewing source material.

Read the following source documents and produce a structured analysis.

{{range .Sources}}--- source ({{.Source.Type}}) ---
{{.Text}}

{{end}}Respond with strict JSON only, no markdown, in this exact shape:
{"summary": "<2-4 paragraph synthesis of the material>", "key_topics": ["<topic>", ...]}`

const personasPromptText = `You are casting speakers for a podcast episode.

Episode analysis:
{{.Summary}}

For each of the following speaker names, write a short background and a
speaking style suited to discussing this material:
{{range .Personas}}- {{.}}
{{end}}
Respond with strict JSON only, no markdown, in this exact shape:
{"personas": [{"name": "<name>", "background": "<1-2 sentences>", "speaking_style": "<1 sentence>"}, ...]}`

const outlinePromptText = `You are planning a podcast episode.

Analysis of the source material:
{{.Analysis.Summary}}
{{if .Analysis.KeyTopics}}
Key topics: {{range .Analysis.KeyTopics}}{{.}}; {{end}}{{end}}
Speakers:
{{range .Profiles}}- {{.Name}}{{if .SpeakingStyle}} ({{.SpeakingStyle}}){{end}}
{{end}}{{if .Style}}
Desired tone: {{.Style}}{{end}}{{if .TargetMinutes}}
Target length: about {{.TargetMinutes}} minutes.{{end}}

Plan 3-6 sections covering the material in a natural conversational arc.
Respond with strict JSON only, no markdown, in this exact shape:
{"sections": [{"title": "<section title>", "points": ["<talking point>", ...]}, ...]}`

const dialoguePromptText = `You are writing the full script for a podcast episode.

Episode outline:
{{range .Outline.Sections}}## {{.Title}}
{{range .Points}}- {{.}}
{{end}}{{end}}
Speakers:
{{range .Profiles}}- {{.Name}}{{if .Background}}: {{.Background}}{{end}}{{if .SpeakingStyle}} Speaks {{.SpeakingStyle}}.{{end}}
{{end}}{{if .Style}}
Desired tone: {{.Style}}{{end}}{{if .TargetMinutes}}
Target length: about {{.TargetMinutes}} minutes of spoken audio.{{end}}

Write the complete dialogue. Alternate speakers naturally; every line must be
attributed to one of the listed speakers by exact name.
Respond with strict JSON only, no markdown, in this exact shape:
{"lines": [{"speaker": "<name>", "text": "<utterance>"}, ...]}`
