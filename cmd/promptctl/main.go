package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/promptcast/pkg/streamclient"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("PROMPTCAST_URL", "http://localhost:8080")
		token   = envOr("PROMPTCAST_TOKEN", "")
	)

	root := &cobra.Command{
		Use:          "promptctl",
		Short:        "CLI para el servicio de generación (catálogo y streaming)",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env PROMPTCAST_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "token bearer (env PROMPTCAST_TOKEN; vacío en modo open)")

	// tools: lista el catálogo con el flag de acceso
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Lista el catálogo de herramientas y el acceso del tier actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := streamclient.New(baseURL, token)
			resp, err := cl.Tools(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("tier: %s\n", resp.Tier)
			for _, cat := range resp.Categories {
				fmt.Printf("\n%s\n", cat.CategoryID)
				for _, t := range cat.Tools {
					mark := " "
					if t.Allowed {
						mark = "*"
					}
					fmt.Printf("  [%s] %-28s %s\n", mark, t.ToolID, t.Title)
				}
			}
			return nil
		},
	}

	// run: ejecuta una generación y vuelca el stream a stdout
	var inputs []string
	runCmd := &cobra.Command{
		Use:   "run <categoria> <herramienta>",
		Short: "Ejecuta una generación y streamea el texto a stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := map[string]string{}
			for _, kv := range inputs {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("input inválido %q (esperado clave=valor)", kv)
				}
				parsed[k] = v
			}

			cl := streamclient.New(baseURL, token)
			err := cl.Stream(cmd.Context(), streamclient.GenerateRequest{
				CategoryID: args[0],
				ToolID:     args[1],
				Inputs:     parsed,
			}, streamclient.Handlers{
				OnChunk: func(text string) { fmt.Print(text) },
				OnDone:  func() { fmt.Println() },
			})
			if err != nil {
				var apiErr *streamclient.APIError
				if errors.As(err, &apiErr) && apiErr.UpgradeRequired {
					return fmt.Errorf("%s (upgrade de plan requerido)", apiErr.Message)
				}
				return err
			}
			return nil
		},
	}
	runCmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input de la herramienta, clave=valor (repetible)")

	root.AddCommand(toolsCmd, runCmd)

	// Ctrl-C cancela el stream en curso
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
