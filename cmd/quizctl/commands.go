package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mindspace-backend/internal/quiz/catalog"
	"mindspace-backend/internal/quiz/recommendation"
	"mindspace-backend/internal/shared/auth"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quizctl",
		Short:         "Inspect the MindSpace quiz engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newScoreCmd(), newCheckCatalogCmd(), newTokenCmd())
	return root
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// parseAnswers turns question=answer pairs into an answer set.
func parseAnswers(pairs []string) (recommendation.AnswerSet, error) {
	answers := make(recommendation.AnswerSet, len(pairs))
	for _, pair := range pairs {
		question, answer, ok := strings.Cut(pair, "=")
		question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
		if !ok || question == "" || answer == "" {
			return nil, fmt.Errorf("invalid answer %q, expected question=answer", pair)
		}
		answers[question] = answer
	}
	return answers, nil
}

type scoreOutput struct {
	Scores     recommendation.ScoreVector      `json:"scores"`
	Category   recommendation.Category         `json:"category"`
	Confidence recommendation.Confidence       `json:"confidence"`
	Shares     map[recommendation.Category]int `json:"shares"`
	Recommends []recommendation.Category       `json:"recommends"`
}

func newScoreCmd() *cobra.Command {
	var (
		catalogPath string
		pairs       []string
		asJSON      bool
		strict      bool
	)
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Score an answer set and print the recommendation",
		Example: "quizctl score -a q1=stress -a q2=wellbeing -a q3=moderate",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			answers, err := parseAnswers(pairs)
			if err != nil {
				return err
			}
			if strict {
				if err := cat.CheckComplete(answers); err != nil {
					return err
				}
			}

			scores, result, err := recommendation.Recommend(answers, cat.Questions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(scoreOutput{
					Scores:     scores,
					Category:   result.Category,
					Confidence: result.Confidence,
					Shares:     result.Shares,
					Recommends: result.Recommended(),
				})
			}

			for _, c := range result.Ranked {
				fmt.Fprintf(out, "%-12s %3d points %3d%%\n", c, scores[c], result.Share(c))
			}
			fmt.Fprintf(out, "recommendation: %s (%s)\n", result.Category, result.Confidence)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML file (defaults to the embedded catalog)")
	cmd.Flags().StringArrayVarP(&pairs, "answer", "a", nil, "answer as question=answer, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "require one known answer per question")
	return cmd
}

func newCheckCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-catalog [file]",
		Short: "Validate a catalog file and print its version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cat, err := loadCatalog(path)
			if err != nil {
				return err
			}

			categories := make(map[recommendation.Category]bool)
			for _, q := range cat.Questions() {
				for _, weights := range q.Weights {
					for c := range weights {
						categories[c] = true
					}
				}
			}
			names := make([]string, 0, len(categories))
			for c := range categories {
				names = append(names, string(c))
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version:    %s\n", cat.Version())
			fmt.Fprintf(out, "questions:  %d\n", len(cat.Questions()))
			fmt.Fprintf(out, "services:   %d\n", len(cat.Services()))
			fmt.Fprintf(out, "categories: %s\n", strings.Join(names, ", "))
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		sub, email, name string
		ttl              time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a staff token with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claims := auth.Claims{Sub: sub, Email: email, Name: name, Role: auth.RoleStaff}
			if ttl > 0 {
				now := time.Now().UTC()
				claims.Iat = now.Unix()
				claims.Exp = now.Add(ttl).Unix()
			}
			token, err := auth.SignJWT(claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "staff member id")
	cmd.Flags().StringVar(&email, "email", "", "staff email")
	cmd.Flags().StringVar(&name, "name", "", "staff display name")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
