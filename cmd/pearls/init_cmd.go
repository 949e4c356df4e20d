package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrorigo/pearls/internal/config"
	"github.com/mrorigo/pearls/internal/gitutil"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a Pearls store in this repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(pearlsDir, 0755); err != nil {
			return err
		}
		configPath := filepath.Join(pearlsDir, "config.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
		}

		if _, err := gitutil.GitDir(); err == nil {
			binary := binaryPath()
			if hooksDir, err := gitutil.HooksDir(); err == nil {
				installHook(hooksDir, "pre-commit", binary)
				installHook(hooksDir, "post-merge", binary)
			}
			if err := gitutil.SetMergeDriver(fmt.Sprintf("%s merge %%O %%A %%B %%L", binary)); err != nil {
				fmt.Fprintln(os.Stderr, render(mutedStyle, "note: could not register git merge driver: "+err.Error()))
			}
			appendGitattributesLine()
		}

		fmt.Println(render(passStyle, "initialized Pearls store at "+pearlsDir))
		return nil
	},
}

func binaryPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "pearls"
	}
	return exe
}

func installHook(hooksDir, name, binary string) {
	path := filepath.Join(hooksDir, name)
	script := gitutil.HookScript(binary, name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		fmt.Fprintln(os.Stderr, render(mutedStyle, "note: could not install "+name+" hook: "+err.Error()))
	}
}

func appendGitattributesLine() {
	toplevel, err := gitutil.Toplevel()
	if err != nil {
		return
	}
	path := filepath.Join(toplevel, ".gitattributes")
	existing, _ := os.ReadFile(path)
	if strings.Contains(string(existing), gitutil.AttributesLine) {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintln(f, gitutil.AttributesLine)
}
