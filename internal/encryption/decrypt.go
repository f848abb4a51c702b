package encryption

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/chainifynet/aws-encryption-sdk-go/pkg/client"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/clientconfig"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/materials"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/providers/kmsprovider"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/suite"
	"github.com/cruxstack/lambda-email-sender-go/internal/aws"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
)

const (
	FormatKMS  = "kms"
	FormatESDK = "esdk"
)

type Decrypter interface {
	Decrypt(ctx context.Context, keyId, encodedEncryptedStr string, encryptionContext map[string]string) (string, error)
}

// ResolveSecrets replaces encrypted api keys in cfg with their plaintext.
// Nothing is touched when APP_SECRETS_KMS_KEY_ID is unset.
func ResolveSecrets(ctx context.Context, cfg *config.Config, kmsClient Decrypter) error {
	if cfg.AppSecretsKmsKeyId == "" {
		return nil
	}

	secrets := map[string]*string{
		"APP_SENDGRID_EMAIL_SEND_API_KEY":         &cfg.SendGridEmailSendApiKey,
		"APP_SENDGRID_EMAIL_VERIFICATION_API_KEY": &cfg.SendGridEmailVerificationApiKey,
		"APP_RESEND_API_KEY":                      &cfg.ResendApiKey,
	}

	for name, ptr := range secrets {
		if *ptr == "" {
			continue
		}
		plaintext, err := Decrypt(ctx, cfg.AppSecretsFormat, cfg.AppSecretsKmsKeyId, *ptr, kmsClient)
		if err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", name, err)
		}
		*ptr = plaintext
	}

	return nil
}

// Decrypt decrypts a base64 ciphertext produced either by a plain KMS
// Encrypt call (format "kms") or by the AWS Encryption SDK ("esdk").
func Decrypt(ctx context.Context, format, kmsId, encryptedText string, kmsClient Decrypter) (string, error) {
	switch format {
	case FormatKMS, "":
		var encCtx map[string]string
		if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
			encCtx = map[string]string{"LambdaFunctionName": fn}
		}
		return kmsClient.Decrypt(ctx, kmsId, encryptedText, encCtx)
	case FormatESDK:
		return decryptEnvelope(ctx, kmsId, encryptedText)
	default:
		return "", fmt.Errorf("unknown secrets format: %s", format)
	}
}

func decryptEnvelope(ctx context.Context, kmsId, encryptedText string) (string, error) {
	cfg, err := clientconfig.NewConfigWithOpts(
		clientconfig.WithCommitmentPolicy(suite.CommitmentPolicyForbidEncryptAllowDecrypt),
	)
	if err != nil {
		return "", fmt.Errorf("client config setup failed: %w", err)
	}
	client := client.NewClientWithConfig(cfg)

	kmsKeyProvider, err := kmsprovider.New(kmsId)
	if err != nil {
		return "", fmt.Errorf("kms key provider setup failed: %w", err)
	}

	cmm, err := materials.NewDefault(kmsKeyProvider)
	if err != nil {
		return "", fmt.Errorf("materials manager setup failed: %w", err)
	}

	cipherText, err := base64.StdEncoding.DecodeString(encryptedText)
	if err != nil {
		return "", err
	}

	plaintext, _, err := client.Decrypt(ctx, cipherText, cmm)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

var _ Decrypter = (*aws.KMSClient)(nil)
