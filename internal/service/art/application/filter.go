// internal/service/art/application/filter.go
package application

import (
	"fmt"

	"artshop/internal/service/art/domain"

	"github.com/google/cel-go/cel"
)

// ArtFilter 是编译好的 CEL 过滤表达式，对每件艺术品求值得到是否保留
type ArtFilter struct {
	program cel.Program
}

var filterEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("price", cel.DoubleType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("category", cel.StringType),
		cel.Variable("inStock", cel.BoolType),
		// 允许 price < 100 这类整数与浮点数的直接比较
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(fmt.Sprintf("art filter: build cel env: %v", err))
	}
	filterEnv = env
}

// CompileFilter 编译过滤表达式，例如 category == "painting" && price < 100.0
func CompileFilter(expr string) (*ArtFilter, error) {
	ast, iss := filterEnv.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must evaluate to bool, got %s", domain.ErrInvalidFilter, ast.OutputType())
	}
	prg, err := filterEnv.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}
	return &ArtFilter{program: prg}, nil
}

// Match 对单件艺术品求值
func (f *ArtFilter) Match(a *domain.Art) (bool, error) {
	price, _ := a.Price.Float64()
	out, _, err := f.program.Eval(map[string]any{
		"title":       a.Title,
		"description": a.Description,
		"price":       price,
		"quantity":    int64(a.Quantity),
		"category":    string(a.Category),
		"inStock":     a.InStock,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidFilter, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: non-bool result", domain.ErrInvalidFilter)
	}
	return matched, nil
}
