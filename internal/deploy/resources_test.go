package deploy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironments_Validate(t *testing.T) {
	for _, name := range Names() {
		env, err := Lookup(name)
		require.NoError(t, err)
		assert.NoError(t, env.Validate(), name)
	}
}

func TestLookup(t *testing.T) {
	env, err := Lookup("PROD")
	require.NoError(t, err)
	assert.Equal(t, "636503752262", env.Account)

	_, err = Lookup("staging")
	assert.True(t, errors.Is(err, ErrUnknownEnvironment))
	assert.Contains(t, err.Error(), "dev, prod")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"dev", "prod"}, Names())
}

func TestValidate_WrongAccount(t *testing.T) {
	env := Prod
	env.EventBusARN = "arn:aws:events:us-west-2:109189702753:event-bus/default"

	err := env.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event bus")
	assert.Contains(t, err.Error(), "account")
}

func TestValidate_WrongService(t *testing.T) {
	env := Prod
	env.AlarmTopicARN = "arn:aws:sqs:us-west-2:636503752262:IGVFProdCatalogSlack"

	err := env.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `service "sqs"`)
}

func TestValidate_Region(t *testing.T) {
	env := Prod
	env.DockerHubSecretARN = "arn:aws:secretsmanager:us-east-1:636503752262:secret:docker-hub-credentials-lfFj2J"
	env.ChatbotSlackARN = "arn:aws:chatbot:us-west-2:636503752262:chat-configuration/slack-channel/slack-catalog"

	err := env.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docker hub secret")
	assert.Contains(t, err.Error(), "chatbot slack channel")
}

func TestValidate_Unparseable(t *testing.T) {
	env := Dev
	env.Domain.CertificateARN = "not-an-arn"
	env.VPCID = "0a5f4ff3233b1b79b"

	err := env.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate")
	assert.Contains(t, err.Error(), "vpc id")
}

func TestResources_EmptyARNsSkipped(t *testing.T) {
	env := Dev
	assert.Len(t, env.Resources(), 6)
	assert.Empty(t, env.CodeStarConnectionARN)
	assert.NoError(t, env.Validate())
}
