package markdown

// Editor turns the value held by an editing widget into the value that is
// stored. Implementations may be a textarea, a rich client widget or a test
// double.
type Editor interface {
	Edit(value string) string
}

// EditorFunc adapts a function to Editor.
type EditorFunc func(string) string

// Edit calls f.
func (f EditorFunc) Edit(value string) string { return f(value) }

// TextareaEditor is the server side of a plain <textarea>: the submitted
// text is normalized and otherwise kept as typed.
type TextareaEditor struct{}

// Edit normalizes value. An all-blank value becomes empty.
func (TextareaEditor) Edit(value string) string {
	out := Normalize(value)
	if out == "\n" {
		return ""
	}
	return out
}

const frontendTemplate = `## Brief

[Provide a brief description of the challenge]

## Requirements

- [List of requirements]

## Design

[Include a screenshot or a link to the design file]

## Data

[If applicable, provide a link to the data source]

## Instructions

- [Step by step instructions for completing the challenge]
- [Any additional information that the user may need]

## Bonus

- [List of bonus tasks that can be completed for extra points]
- [Include any specific instructions for completing the bonus tasks]
`

var starterTemplates = map[string]string{
	"Frontend": frontendTemplate,
}

// StarterTemplate returns the description a new challenge form is seeded
// with. Types without their own template use the Frontend one.
func StarterTemplate(challengeType string) string {
	if t, ok := starterTemplates[challengeType]; ok {
		return t
	}
	return frontendTemplate
}
