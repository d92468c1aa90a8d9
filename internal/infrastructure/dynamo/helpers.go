package dynamo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr is a compiled UpdateExpression with its placeholder maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET clause,
// followed by a REMOVE clause for the given fields. Keys are sorted so the
// expression is deterministic.
func buildUpdateExpr(updates map[string]interface{}, remove ...string) (updateExpr, error) {
	ue := updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	if len(updates) == 0 && len(remove) == 0 {
		return updateExpr{}, fmt.Errorf("no fields to update")
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	if len(keys) > 0 {
		sets := make([]string, 0, len(keys))
		for i, k := range keys {
			nameKey := fmt.Sprintf("#f%d", i)
			valueKey := fmt.Sprintf(":v%d", i)
			av, err := attributevalue.Marshal(updates[k])
			if err != nil {
				return updateExpr{}, fmt.Errorf("marshal field %s: %w", k, err)
			}
			ue.Names[nameKey] = k
			ue.Values[valueKey] = av
			sets = append(sets, fmt.Sprintf("%s = %s", nameKey, valueKey))
		}
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(remove) > 0 {
		rms := make([]string, 0, len(remove))
		for i, k := range remove {
			nameKey := fmt.Sprintf("#r%d", i)
			ue.Names[nameKey] = k
			rms = append(rms, nameKey)
		}
		clauses = append(clauses, "REMOVE "+strings.Join(rms, ", "))
	}
	ue.Expr = strings.Join(clauses, " ")
	return ue, nil
}

// withCondition merges a condition's placeholders into the update's maps.
// Condition placeholders use the #c / :c prefixes so they never collide.
func (ue updateExpr) withCondition(names map[string]string, values map[string]types.AttributeValue) updateExpr {
	for k, v := range names {
		ue.Names[k] = v
	}
	for k, v := range values {
		ue.Values[k] = v
	}
	return ue
}
