// -----------------------------------------------------------------------
// gradus - grades architecture studio submissions against an assignment
// brief: extracts the brief and submission PDFs, derives a rubric with a
// chat model, scores every submission image with a vision model, and
// writes the rubric and evaluation report.
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/gradus/internal/common"
	"github.com/ternarybob/gradus/internal/models"
	"github.com/ternarybob/gradus/internal/services/grading"
	"github.com/ternarybob/gradus/internal/services/llm"
	"github.com/ternarybob/gradus/internal/services/pdf"
	"github.com/ternarybob/gradus/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles      configPaths // Multiple -config flags supported
	assignmentPDF    = flag.String("assignment_pdf", "", "Path to the assignment brief PDF (required)")
	submissionPDF    = flag.String("submission_pdf", "", "Path to the student submission PDF (required)")
	architectName    = flag.String("architect_name", "", "Name of the architect whose work frames the assignment (required)")
	course           = flag.String("course", "", "Course identifier (overrides config)")
	assignmentNumber = flag.String("assignment_number", "", "Assignment number (overrides config)")
	pdfReport        = flag.Bool("pdf_report", false, "Also render the evaluation report as a PDF")
	showVersion      = flag.Bool("version", false, "Print version information")
	showVersionV     = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Gradus version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file(s) -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, statErr := os.Stat("gradus.toml"); statErr == nil {
			configFiles = append(configFiles, "gradus.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	if *pdfReport {
		config.Grading.PDFReport = true
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	job := &models.GradingJob{
		AssignmentPDF:    *assignmentPDF,
		SubmissionPDF:    *submissionPDF,
		ArchitectName:    *architectName,
		Course:           config.Grading.Course,
		AssignmentNumber: config.Grading.AssignmentNumber,
	}
	if *course != "" {
		job.Course = *course
	}
	if *assignmentNumber != "" {
		job.AssignmentNumber = *assignmentNumber
	}

	if err := job.Validate(); err != nil {
		flag.Usage()
		logger.Fatal().Err(err).Msg("Invalid arguments")
		os.Exit(1)
	}

	logger.Info().
		Strs("config_files", configFiles).
		Str("provider", string(config.LLM.DefaultProvider)).
		Str("course", job.Course).
		Str("assignment", job.AssignmentNumber).
		Msg("Configuration loaded")

	// Credential resolution happens inside the provider constructor; a
	// missing key aborts here before any document work starts.
	llmService, err := llm.NewLLMService(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize LLM service")
		os.Exit(1)
	}
	defer llmService.Close()

	var auditLogger llm.AuditLogger
	if config.Audit.Enabled {
		auditDB, err := badger.NewBadgerDB(logger, config.Audit.Path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", config.Audit.Path).Msg("Failed to open audit store")
			os.Exit(1)
		}
		defer auditDB.Close()
		auditLogger = llm.NewBadgerAuditLogger(auditDB, config.Audit.LogPrompts, logger)
	}

	gateway := grading.NewGateway(llmService, string(config.LLM.DefaultProvider), auditLogger, logger)
	extractor := pdf.NewExtractor(logger, config.Grading.MaxImageEdge)

	var renderer *pdf.ReportService
	if config.Grading.PDFReport {
		renderer = pdf.NewReportService(logger)
	}

	grader := grading.NewGrader(config, logger, extractor, gateway, renderer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := grader.Run(ctx, job)
	if err != nil {
		logger.Fatal().Err(err).Msg("Grading run failed")
		os.Exit(1)
	}

	fmt.Println("## Rubric")
	fmt.Println()
	fmt.Println(report.Rubric)
	fmt.Println()
	fmt.Print(grading.FormatReport(report))
}
