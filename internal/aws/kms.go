package aws

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSAPI is the subset of the kms client used for secret decryption.
type KMSAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

type KMSClient struct {
	Client KMSAPI
}

func NewKMSClient(cfg aws.Config) *KMSClient {
	return &KMSClient{Client: kms.NewFromConfig(cfg)}
}

// Decrypt decodes a base64 ciphertext and decrypts it with KMS. Values
// encrypted through the lambda console carry the function name as
// encryption context, so it is passed through when set.
func (c *KMSClient) Decrypt(ctx context.Context, keyId, encodedEncryptedStr string, encryptionContext map[string]string) (string, error) {
	if encodedEncryptedStr == "" {
		return "", nil
	}

	decodedCode, err := base64.StdEncoding.DecodeString(encodedEncryptedStr)
	if err != nil {
		return "", fmt.Errorf("invalid base64 ciphertext: %w", err)
	}

	decryptInput := &kms.DecryptInput{
		CiphertextBlob:    decodedCode,
		KeyId:             aws.String(keyId),
		EncryptionContext: encryptionContext,
	}
	decryptOutput, err := c.Client.Decrypt(ctx, decryptInput)
	if err != nil {
		return "", fmt.Errorf("kms decrypt failed: %w", err)
	}

	return string(decryptOutput.Plaintext), nil
}
