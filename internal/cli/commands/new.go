package commands

import (
	"embed"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/iancoleman/strcase"
	"github.com/spf13/cobra"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	newInteractive bool
	newPackage     string
	newRational    bool
)

// projectFiles maps each generated file to its template
var projectFiles = []struct {
	path     string
	template string
}{
	{"dimc.yml", "templates/dimc.yml.tmpl"},
	{"units.dim", "templates/units.dim.tmpl"},
	{".gitignore", "templates/gitignore.tmpl"},
	{"README.md", "templates/README.md.tmpl"},
}

// projectData is passed to every project template
type projectData struct {
	ProjectName       string
	Package           string
	RationalExponents bool
}

// validateProjectName validates project name with security checks
func validateProjectName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("project name must be 1-100 characters")
	}

	if filepath.IsAbs(name) {
		return fmt.Errorf("project name cannot be an absolute path")
	}

	// Dots are rejected here, which also rules out ".."
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, name)
	if !matched {
		return fmt.Errorf("project name can only contain letters, numbers, dashes, and underscores")
	}

	return nil
}

// packageName derives a Go package name from a project name, falling back
// to "units" when the name yields no valid identifier
func packageName(projectName string) string {
	pkg := strings.ReplaceAll(strcase.ToSnake(projectName), "_", "")
	if !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
		return "units"
	}
	return pkg
}

// NewNewCommand creates the new command
func NewNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [project-name]",
		Short: "Create a new dimc project",
		Long: `Create a new dimc project with a configuration file and a sample
definition file.

If no project name is provided, you will be prompted to enter one.`,
		Example: `  dimc new physics
  dimc new physics --package si --rational
  dimc new --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runNew,
	}

	cmd.Flags().BoolVarP(&newInteractive, "interactive", "i", false, "Interactive project setup with prompts")
	cmd.Flags().StringVar(&newPackage, "package", "", "Package name of the generated code (default: derived from the project name)")
	cmd.Flags().BoolVar(&newRational, "rational", false, "Allow rational exponents")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)
	promptColor := color.New(color.FgYellow)

	data := projectData{
		Package:           newPackage,
		RationalExponents: newRational,
	}
	if len(args) > 0 {
		data.ProjectName = args[0]
	}

	if newInteractive {
		if err := askProject(&data); err != nil {
			return err
		}
	}

	if err := validateProjectName(data.ProjectName); err != nil {
		return err
	}
	data.ProjectName = strings.TrimSpace(data.ProjectName)
	if data.Package == "" {
		data.Package = packageName(data.ProjectName)
	}
	if !token.IsIdentifier(data.Package) || data.Package != strings.ToLower(data.Package) {
		return fmt.Errorf("package name %q is not a lower-case Go identifier", data.Package)
	}

	projectPath := filepath.Join(".", data.ProjectName)
	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("directory %s already exists", data.ProjectName)
	}

	infoColor.Fprintf(out, "Creating project: %s\n\n", data.ProjectName)

	if err := createProject(out, projectPath, data); err != nil {
		return err
	}

	fmt.Fprintln(out)
	successColor.Fprintf(out, "✓ Created project: %s\n\n", data.ProjectName)

	promptColor.Fprintln(out, "Get started:")
	fmt.Fprintf(out, "  cd %s\n", data.ProjectName)
	fmt.Fprintln(out, "  dimc check")
	fmt.Fprintln(out, "  dimc build")

	return nil
}

// askProject prompts for the values not given on the command line
func askProject(data *projectData) error {
	questions := []*survey.Question{
		{
			Name: "projectName",
			Prompt: &survey.Input{
				Message: "Project name:",
				Default: data.ProjectName,
			},
			Validate: survey.Required,
		},
		{
			Name: "package",
			Prompt: &survey.Input{
				Message: "Go package name:",
				Default: data.Package,
				Help:    "Leave empty to derive it from the project name",
			},
		},
		{
			Name: "rational",
			Prompt: &survey.Confirm{
				Message: "Allow rational exponents such as Length^(1/2)?",
				Default: data.RationalExponents,
			},
		},
	}

	answers := struct {
		ProjectName string
		Package     string
		Rational    bool
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	data.ProjectName = answers.ProjectName
	data.Package = strings.TrimSpace(answers.Package)
	data.RationalExponents = answers.Rational
	return nil
}

// createProject renders every project template into dir
func createProject(w io.Writer, dir string, data projectData) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	for _, f := range projectFiles {
		content, err := templatesFS.ReadFile(f.template)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", f.template, err)
		}

		tmpl, err := template.New(f.path).Parse(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", f.template, err)
		}

		dest := filepath.Join(dir, f.path)
		file, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}

		err = tmpl.Execute(file, data)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}

		fmt.Fprintf(w, "  created %s\n", f.path)
	}

	return nil
}
