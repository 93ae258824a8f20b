// sm2cli generates SM2 key pairs and decrypts SECURE_DATA envelopes offline.
// 运维/审计侧工具，不依赖业务配置文件。
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emmansun/gmsm/sm2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	securelog "github.com/geekfrog/securelog-ecc"
	"github.com/geekfrog/securelog-ecc/conf"
	"github.com/geekfrog/securelog-ecc/ecccore"
)

const decryptOutputFile = "sm2_decrypt_output.txt"

var sm4Transformation string

func main() {
	root := &cobra.Command{
		Use:     "sm2cli",
		Short:   "SM2 key pair and SECURE_DATA toolbox",
		Version: securelog.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive()
		},
	}
	root.PersistentFlags().StringVar(&sm4Transformation, "sm4-transformation",
		conf.DefSm4Transformation, "SM4 transformation used by the producing side")

	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "generate an SM2 key pair and save both halves plus the fingerprint to files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(os.Stdout)
		},
	}

	decrypt := &cobra.Command{
		Use:   "decrypt [SECURE_DATA...]",
		Short: "decrypt SECURE_DATA envelopes with an SM2 private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			keyFile, _ := cmd.Flags().GetString("key-file")
			priv, err := loadPrivateKey(keyFile)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				for _, secureData := range args {
					decryptOnce(os.Stdout, secureData, priv)
				}
				return nil
			}
			return runDecryptLoop(bufio.NewReader(os.Stdin), priv)
		},
	}
	decrypt.Flags().String("key-file", "", "file holding the Base64 PKCS#8 private key (prompted when empty)")

	root.AddCommand(keygen, decrypt)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInteractive() error {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("请选择操作：1.生成SM2密钥对  2.解密  (输入exit/quit退出)")
		choice, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "exit", "quit":
			fmt.Println("程序已关闭。")
			return nil
		case "1":
			if err := runKeygen(os.Stdout); err != nil {
				fmt.Printf("密钥生成失败: %v\n", err)
			}
		case "2":
			priv, err := promptPrivateKey(reader)
			if err != nil {
				return nil
			}
			if err := runDecryptLoop(reader, priv); err != nil {
				return nil
			}
		default:
			fmt.Println("输入无效，请输入1或2，或输入exit/quit退出。")
		}
	}
}

func runKeygen(out *os.File) error {
	pubB64, privB64, err := ecccore.GenerateKeyPair()
	if err != nil {
		return err
	}
	fingerprint := ecccore.PublicKeyFingerprint(pubB64)
	stamp := time.Now().Format("20060102_150405")
	pubPath := "sm2_public_key_" + stamp + ".txt"
	privPath := "sm2_private_key_" + stamp + ".txt"
	fpPath := "sm2_fingerprint_" + stamp + ".txt"
	if err := writeNewFile(pubPath, pubB64); err != nil {
		return err
	}
	if err := writeNewFile(privPath, privB64); err != nil {
		return err
	}
	if err := writeNewFile(fpPath, fingerprint); err != nil {
		return err
	}
	fmt.Fprintln(out, "公钥（Base64）:")
	fmt.Fprintln(out, pubB64)
	fmt.Fprintln(out, "私钥（Base64）:")
	fmt.Fprintln(out, privB64)
	fmt.Fprintln(out, "公钥指纹（Base64）:")
	fmt.Fprintln(out, fingerprint)
	fmt.Fprintln(out, "密钥已保存到文件：")
	fmt.Fprintln(out, absPath(pubPath))
	fmt.Fprintln(out, absPath(privPath))
	fmt.Fprintln(out, absPath(fpPath))
	fmt.Fprintln(out, "请妥善保存，避免泄露。")
	return nil
}

func runDecryptLoop(reader *bufio.Reader, priv *sm2.PrivateKey) error {
	for {
		fmt.Println("请输入要解密的SECURE_DATA（Base64格式）：")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		secureData := strings.TrimSpace(line)
		if len(secureData) == 0 {
			fmt.Println("SECURE_DATA不能为空，请重新输入。")
		} else {
			decryptOnce(os.Stdout, secureData, priv)
		}

		fmt.Println("是否继续解密？(输入'c'继续，其他任意键退出)")
		decision, err := reader.ReadString('\n')
		if err != nil || !strings.EqualFold(strings.TrimSpace(decision), "c") {
			return nil
		}
	}
}

func decryptOnce(out *os.File, secureData string, priv *sm2.PrivateKey) {
	plaintext, err := securelog.DecryptSecureData(secureData, priv, sm4Transformation)
	if err != nil {
		fmt.Fprintln(out, "解密失败，请检查私钥和SECURE_DATA是否正确。")
		return
	}
	fmt.Fprintln(out, "解密后的明文："+plaintext)
	if err := appendLine(decryptOutputFile, plaintext); err == nil {
		fmt.Fprintln(out, "数据已追加到："+absPath(decryptOutputFile))
	}
	fmt.Fprintln(out)
}

// promptPrivateKey reads the private key without echoing it. Retries until
// a parseable key arrives, EOF gives up.
func promptPrivateKey(reader *bufio.Reader) (*sm2.PrivateKey, error) {
	for {
		fmt.Println("请输入用于解密的私钥（Base64格式）：")
		var input string
		if term.IsTerminal(int(os.Stdin.Fd())) {
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return nil, err
			}
			input = string(raw)
		} else {
			line, err := reader.ReadString('\n')
			if err != nil {
				return nil, err
			}
			input = line
		}
		trimmed := strings.TrimSpace(input)
		if len(trimmed) == 0 {
			fmt.Println("私钥不能为空，请重新输入。")
			continue
		}
		priv, err := ecccore.DecodePrivateKey(trimmed)
		if err != nil {
			fmt.Println("私钥格式无效，请输入Base64格式的私钥。")
			continue
		}
		return priv, nil
	}
}

func loadPrivateKey(keyFile string) (*sm2.PrivateKey, error) {
	if len(keyFile) == 0 {
		return promptPrivateKey(bufio.NewReader(os.Stdin))
	}
	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	return ecccore.DecodePrivateKey(strings.TrimSpace(string(raw)))
}

func writeNewFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func appendLine(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content + "\n\n")
	return err
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
