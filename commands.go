package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muhammadolammi/resumeworker/internal/metrics"
	"github.com/muhammadolammi/resumeworker/internal/pipeline"
)

var (
	analyzeSync    bool
	reviewJobID    string
	skillsCategory string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume the analysis queue",
	Long:  "Runs the consumer pool, the stuck-analysis sweeper and the metrics server until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, w *WorkerConfig) error {
			listener, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				return fmt.Errorf("creating metrics listener: %w", err)
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return metrics.NewServer(cfg.MetricsAddr, listener, log).Run(ctx)
			})
			g.Go(func() error {
				return pipeline.NewSweeper(w.Orchestrator, cfg.Pipeline.StuckAfter, cfg.Pipeline.SweepInterval, log).Run(ctx)
			})
			g.Go(func() error {
				log.Info("starting consumer worker pool", zap.Int("workers", cfg.Queue.Workers))
				return w.StartConsumerWorkerPool(ctx, cfg.Queue.Workers)
			})
			return g.Wait()
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-id>",
	Short: "Queue a resume for analysis, or analyze it inline with --sync",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "resume id")
		if err != nil {
			return err
		}
		return withApp(cmd, !analyzeSync, func(ctx context.Context, w *WorkerConfig) error {
			if err := w.Service.RunAnalysis(ctx, id); err != nil {
				return err
			}
			if !analyzeSync {
				log.Info("analysis queued", zap.Stringer("resume_id", id))
				return nil
			}
			rec, err := w.Service.GetAnalysis(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(rec)
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reset analyses stuck in analyzing and queue them again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, true, func(ctx context.Context, w *WorkerConfig) error {
			n, err := pipeline.NewSweeper(w.Orchestrator, cfg.Pipeline.StuckAfter, cfg.Pipeline.SweepInterval, log).SweepOnce(ctx)
			if err != nil {
				return err
			}
			log.Info("sweep finished", zap.Int("reset", n))
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <resume-id>",
	Short: "Print the current analysis of a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "resume id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			rec, err := w.Service.GetAnalysis(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(rec)
		})
	},
}

var analysesCmd = &cobra.Command{
	Use:   "analyses <user-id>",
	Short: "List a user's analyses, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			list, err := w.Service.ListAnalyses(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(list)
		})
	},
}

var matchJobsCmd = &cobra.Command{
	Use:   "match-jobs <resume-id>",
	Short: "Rank active jobs by skill overlap with a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "resume id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			matches, err := w.Service.MatchJobsForResume(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(matches)
		})
	},
}

var matchResumesCmd = &cobra.Command{
	Use:   "match-resumes <job-id>",
	Short: "Rank resumes by skill overlap with a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "job id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			matches, err := w.Service.MatchResumesForJob(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(matches)
		})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <resume-id> <job-id>",
	Short: "Compute how much of a job's skill set a resume covers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resumeID, err := parseID(args[0], "resume id")
		if err != nil {
			return err
		}
		jobID, err := parseID(args[1], "job id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			p, err := w.Service.ComputeMatchPercentage(ctx, resumeID, jobID)
			if err != nil {
				return err
			}
			return printJSON(p)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Print analysis statistics for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			stats, err := w.Service.GetStatistics(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(stats)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <resume-id>",
	Short: "Delete a resume together with its analysis and file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "resume id")
		if err != nil {
			return err
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			return w.Service.DeleteResume(ctx, id)
		})
	},
}

var aiReviewCmd = &cobra.Command{
	Use:   "ai-review <resume-id>",
	Short: "Attach an AI review to a completed analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "resume id")
		if err != nil {
			return err
		}
		var jobID *uuid.UUID
		if reviewJobID != "" {
			j, err := parseID(reviewJobID, "job id")
			if err != nil {
				return err
			}
			jobID = &j
		}
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			review, err := w.Service.AttachAIAnalysis(ctx, id, jobID)
			if err != nil {
				return err
			}
			return printJSON(review)
		})
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skill catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, false, func(ctx context.Context, w *WorkerConfig) error {
			skills, err := w.Service.ListSkills(ctx, skillsCategory)
			if err != nil {
				return err
			}
			return printJSON(skills)
		})
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeSync, "sync", false, "Analyze inline instead of queueing")
	aiReviewCmd.Flags().StringVar(&reviewJobID, "job", "", "Job id to tailor the review to")
	skillsCmd.Flags().StringVar(&skillsCategory, "category", "", "Only list skills in this category")

	rootCmd.AddCommand(
		workerCmd,
		analyzeCmd,
		sweepCmd,
		showCmd,
		analysesCmd,
		matchJobsCmd,
		matchResumesCmd,
		matchCmd,
		statsCmd,
		deleteCmd,
		aiReviewCmd,
		skillsCmd,
	)
}

// withApp wires dependencies for one command and tears them down afterwards.
func withApp(cmd *cobra.Command, withQueue bool, fn func(ctx context.Context, w *WorkerConfig) error) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	w, err := setup(ctx, cfg, log, withQueue)
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(ctx, w)
}

func parseID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return id, nil
}

func printJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
