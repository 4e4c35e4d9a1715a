// Package deploy describes the existing AWS resources each catalog-llm
// environment is deployed into. Nothing here creates or changes resources.
package deploy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// Domain is the public name of an environment and its TLS certificate.
type Domain struct {
	Name           string
	CertificateARN string
}

// Environment lists the existing resources of one deployment target.
// Empty ARNs are provided by shared infrastructure outside this repository.
type Environment struct {
	Name                  string
	Account               string
	Region                string
	VPCID                 string
	Domain                Domain
	CodeStarConnectionARN string
	DockerHubSecretARN    string
	ChatbotSlackARN       string
	AlarmTopicARN         string
	EventBusARN           string
}

// Dev is the development environment.
var Dev = Environment{
	Name:    "dev",
	Account: "109189702753",
	Region:  "us-west-2",
	VPCID:   "vpc-0a5f4ff3233b1b79b",
	Domain: Domain{
		Name:           "catalog.igvf.org",
		CertificateARN: "arn:aws:acm:us-west-2:109189702753:certificate/84e0ade9-fb95-49e9-bf38-fb663cc38d55",
	},
}

// Prod is the production environment. Its domain comes from shared
// infrastructure.
var Prod = Environment{
	Name:                  "prod",
	Account:               "636503752262",
	Region:                "us-west-2",
	VPCID:                 "vpc-0c07b4924c61a6b78",
	CodeStarConnectionARN: "arn:aws:codeconnections:us-west-2:636503752262:connection/fe8ba008-c9f7-4076-83bb-2c57ba0ecd45",
	DockerHubSecretARN:    "arn:aws:secretsmanager:us-west-2:636503752262:secret:docker-hub-credentials-lfFj2J",
	ChatbotSlackARN:       "arn:aws:chatbot::636503752262:chat-configuration/slack-channel/slack-catalog",
	AlarmTopicARN:         "arn:aws:sns:us-west-2:636503752262:IGVFProdCatalogSlack",
	EventBusARN:           "arn:aws:events:us-west-2:636503752262:event-bus/default",
}

var environments = map[string]Environment{
	Dev.Name:  Dev,
	Prod.Name: Prod,
}

// ErrUnknownEnvironment is returned by Lookup.
var ErrUnknownEnvironment = errors.New("unknown environment")

// Lookup returns the environment with the given name.
func Lookup(name string) (Environment, error) {
	env, ok := environments[strings.ToLower(name)]
	if !ok {
		return Environment{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownEnvironment, name, strings.Join(Names(), ", "))
	}
	return env, nil
}

// Names returns the known environment names, sorted.
func Names() []string {
	names := make([]string, 0, len(environments))
	for n := range environments {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resource is one named ARN of an environment.
type Resource struct {
	Label   string
	ARN     string
	Service []string // accepted ARN services
	Global  bool     // the ARN carries no region
}

// Resources returns the ARNs of env in display order, including empty ones.
func (e Environment) Resources() []Resource {
	return []Resource{
		{Label: "certificate", ARN: e.Domain.CertificateARN, Service: []string{"acm"}},
		{Label: "codestar connection", ARN: e.CodeStarConnectionARN, Service: []string{"codeconnections", "codestar-connections"}},
		{Label: "docker hub secret", ARN: e.DockerHubSecretARN, Service: []string{"secretsmanager"}},
		{Label: "chatbot slack channel", ARN: e.ChatbotSlackARN, Service: []string{"chatbot"}, Global: true},
		{Label: "alarm topic", ARN: e.AlarmTopicARN, Service: []string{"sns"}},
		{Label: "event bus", ARN: e.EventBusARN, Service: []string{"events"}},
	}
}

// Validate parses every non-empty ARN and checks that it belongs to the
// expected service, the environment's account and, for regional services,
// its region. All problems are reported together.
func (e Environment) Validate() error {
	var problems []string

	if e.Account == "" || e.Region == "" {
		problems = append(problems, "account and region are required")
	}
	if e.VPCID != "" && !strings.HasPrefix(e.VPCID, "vpc-") {
		problems = append(problems, fmt.Sprintf("vpc id %q does not start with vpc-", e.VPCID))
	}

	for _, r := range e.Resources() {
		if r.ARN == "" {
			continue
		}
		if err := e.check(r); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", r.Label, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment %s: %s", e.Name, strings.Join(problems, "; "))
	}
	return nil
}

func (e Environment) check(r Resource) error {
	a, err := arn.Parse(r.ARN)
	if err != nil {
		return err
	}
	if !contains(r.Service, a.Service) {
		return fmt.Errorf("service %q, want %s", a.Service, strings.Join(r.Service, " or "))
	}
	if a.AccountID != e.Account {
		return fmt.Errorf("account %q, want %q", a.AccountID, e.Account)
	}
	if r.Global {
		if a.Region != "" {
			return fmt.Errorf("region %q, want none", a.Region)
		}
	} else if a.Region != e.Region {
		return fmt.Errorf("region %q, want %q", a.Region, e.Region)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
