// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cfn_test

import (
	"strings"
	"testing"

	"carvel.dev/cfnls/pkg/cfn"
	"carvel.dev/cfnls/pkg/filepos"
	"carvel.dev/cfnls/pkg/yamlast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReferencesDeclared(t *testing.T) {
	text := strings.Join([]string{
		"Parameters:",
		"  Stage:",
		"    Type: String",
		"Conditions:",
		"  IsProd: !Equals [!Ref Stage, prod]",
		"Resources:",
		"  Function:",
		"    Type: AWS::Serverless::Function",
		"    Condition: IsProd",
		"    DependsOn: [MyTable]",
		"    Properties:",
		"      CodeUri: !Ref MyTable",
		"      Description: !Sub '${Stage} in ${AWS::Region} for ${MyTable.Arn} ${!Literal}'",
		"      Role: !GetAtt [MyTable, Arn]",
		"      Handler: !If [IsProd, a, b]",
		"      FunctionName: !Sub ['${Name}-fn', {Name: !Ref Stage}]",
		"  MyTable:",
		"    Type: AWS::DynamoDB::Table",
		"    Properties:",
		"      TableName:",
		"        Fn::GetAtt: MyTable.Arn",
	}, "\n")

	assert.Empty(t, cfn.CheckReferences(yamlast.Parse(text)))
}

func TestCheckReferencesUndeclared(t *testing.T) {
	text := strings.Join([]string{
		"Resources:",
		"  MyTable:",
		"    Type: AWS::DynamoDB::Table",
		"  Function:",
		"    Type: AWS::Serverless::Function",
		"    Properties:",
		"      CodeUri: !Ref MyTabel",
	}, "\n")

	problems := cfn.CheckReferences(yamlast.Parse(text))
	require.Len(t, problems, 1)

	start := strings.Index(text, "!Ref MyTabel")
	assert.Equal(t, filepos.NewRange(start, start+len("!Ref MyTabel")), problems[0].Range)
	assert.Equal(t, cfn.RuleUnresolvedReference, problems[0].Rule)
	assert.Equal(t, "MyTabel", problems[0].Target)
	assert.Equal(t, "Ref refers to undeclared resource or parameter 'MyTabel' (did you mean 'MyTable'?)", problems[0].Message)
}

func TestCheckReferencesByFunction(t *testing.T) {
	cases := []struct {
		desc     string
		value    string
		target   string
		expected string
	}{
		{"long form Ref", "{Ref: Missing}", "Missing", "Ref refers to undeclared resource or parameter 'Missing'"},
		{"GetAtt scalar", "!GetAtt Missing.Arn", "Missing", "GetAtt refers to undeclared resource 'Missing'"},
		{"GetAtt of parameter", "!GetAtt Param.Arn", "Param", "GetAtt refers to undeclared resource 'Param'"},
		{"GetAtt list", "{'Fn::GetAtt': [Missing, Arn]}", "Missing", "GetAtt refers to undeclared resource 'Missing'"},
		{"Sub variable", "!Sub 'arn:${Missing}'", "Missing", "Sub refers to undeclared resource or parameter 'Missing'"},
		{"Sub attribute", "!Sub '${Param.Arn}'", "Param", "Sub refers to undeclared resource or parameter 'Param'"},
		{"If condition", "!If [Missing, a, b]", "Missing", "Condition refers to undeclared condition 'Missing'"},
		{"Condition", "!Condition Missing", "Missing", "Condition refers to undeclared condition 'Missing'"},
		{"long form Condition", "{Condition: Missing}", "Missing", "Condition refers to undeclared condition 'Missing'"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			text := "Parameters:\n  Param:\n    Type: String\nResources:\n  Res:\n    Type: AWS::SNS::Topic\n    Properties:\n      TopicName: " + tc.value + "\n"
			problems := cfn.CheckReferences(yamlast.Parse(text))
			require.Len(t, problems, 1)
			assert.Equal(t, tc.target, problems[0].Target)
			assert.Equal(t, tc.expected, problems[0].Message)
		})
	}
}

func TestCheckReferencesSubRangeNarrowedToVariable(t *testing.T) {
	text := "Resources:\n  Res:\n    Type: AWS::SNS::Topic\n    Properties:\n      TopicName: !Sub 'pre-${Missing}-post'\n"

	problems := cfn.CheckReferences(yamlast.Parse(text))
	require.Len(t, problems, 1)

	start := strings.Index(text, "${Missing}")
	assert.Equal(t, filepos.NewRange(start, start+len("${Missing}")), problems[0].Range)
}

func TestCheckReferencesResourceAttributes(t *testing.T) {
	text := strings.Join([]string{
		"Conditions:",
		"  IsProd: !Equals [a, a]",
		"Resources:",
		"  First:",
		"    Type: AWS::SNS::Topic",
		"    Condition: IsPrd",
		"  Second:",
		"    Type: AWS::SNS::Topic",
		"    DependsOn:",
		"      - First",
		"      - Thrid",
	}, "\n")

	problems := cfn.CheckReferences(yamlast.Parse(text))
	require.Len(t, problems, 2)

	var messages []string
	for _, p := range problems {
		messages = append(messages, p.Message)
	}
	assert.ElementsMatch(t, []string{
		"Condition refers to undeclared condition 'IsPrd' (did you mean 'IsProd'?)",
		"DependsOn refers to undeclared resource 'Thrid'",
	}, messages)

	for _, p := range problems {
		if p.Target == "IsPrd" {
			assert.Equal(t, cfn.RuleUnresolvedCondition, p.Rule)
		}
	}
}

func TestCheckReferencesConditionOnlyResourceReportedOnce(t *testing.T) {
	problems := cfn.CheckReferences(yamlast.Parse("Resources:\n  Res:\n    Condition: Missing\n"))
	require.Len(t, problems, 1)
	assert.Equal(t, cfn.RuleUnresolvedCondition, problems[0].Rule)
}

func TestCheckReferencesEmptyDocument(t *testing.T) {
	assert.Empty(t, cfn.CheckReferences(yamlast.Parse("")))
}

func TestDeclarations(t *testing.T) {
	doc := yamlast.Parse("Parameters:\n  P: {Type: String}\nConditions:\n  C: !Equals [a, b]\nResources:\n  R: {Type: AWS::SNS::Topic}\n")
	decls := cfn.NewDeclarations(doc)

	assert.Equal(t, []string{"R"}, decls.Resources)
	assert.Equal(t, []string{"P"}, decls.Parameters)
	assert.Equal(t, []string{"C"}, decls.Conditions)
	assert.Contains(t, decls.Referenceable(), "AWS::Region")
	assert.Contains(t, decls.Referenceable(), "P")

	doc = yamlast.Parse("Resources:\n  R: {Type: AWS::SNS::Topic}\n  R: {Type: AWS::SQS::Queue}\n")
	assert.Equal(t, []string{"R"}, cfn.NewDeclarations(doc).Resources)
}
