// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package cfn knows what CloudFormation and the SAM transform mean on top of
plain YAML.

An Adapter prepares a Plan for each template: the schema to match against
(with serverless resource types available when the template declares the
AWS::Serverless-2016-10-31 transform), the properties that SAM Globals supply
implicitly, and the runtime types of intrinsic function invocations.
The template itself is never modified.

CheckReferences resolves the logical ids named by Ref, GetAtt, Sub,
DependsOn and Condition against the template's declarations.
*/
package cfn
