package cli

import (
	"github.com/AlecAivazis/survey/v2"
)

// prompter asks for the fields missing from the add flags.
type prompter interface {
	Title() (string, error)
	Content() (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Title() (string, error) {
	var title string
	err := survey.AskOne(&survey.Input{Message: "Title:"}, &title, survey.WithValidator(survey.Required))
	return title, err
}

func (surveyPrompter) Content() (string, error) {
	var content string
	err := survey.AskOne(&survey.Multiline{Message: "Content:"}, &content, survey.WithValidator(survey.Required))
	return content, err
}
