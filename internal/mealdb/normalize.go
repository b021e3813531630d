package mealdb

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pageza/recipe-pages/backend/internal/types"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

const (
	ingredientPrefix = "strIngredient"
	measurePrefix    = "strMeasure"

	// instructionSeparator is the line break TheMealDB uses in strInstructions
	instructionSeparator = "\r\n"
)

// Meal is one raw entry of the meals array. Values are strings or null.
type Meal map[string]any

// String returns the value of key, with null and non-string values as ""
func (m Meal) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// NormalizeKeyword trims and NFC-normalizes a search keyword. An empty or
// whitespace-only keyword is a bad request.
func NormalizeKeyword(raw string) (string, error) {
	keyword := strings.TrimSpace(norm.NFC.String(raw))
	if keyword == "" {
		return "", apperrors.NewBadRequestError("Empty Search")
	}
	return keyword, nil
}

// Normalize converts raw meals into recipes, preserving order
func Normalize(meals []Meal) []types.Recipe {
	recipes := make([]types.Recipe, 0, len(meals))
	for _, meal := range meals {
		recipes = append(recipes, NormalizeMeal(meal))
	}
	return recipes
}

// NormalizeMeal converts one raw meal into a recipe
func NormalizeMeal(meal Meal) types.Recipe {
	return types.Recipe{
		Name:         meal.String("strMeal"),
		Ingredients:  FormatIngredients(meal),
		Instructions: SplitInstructions(meal.String("strInstructions")),
		Image:        meal.String("strMealThumb"),
		Video:        meal.String("strYoutube"),
	}
}

// FormatIngredients pairs strIngredientK with strMeasureK by ordinal K and
// renders one "<measure> <ingredient>" line per non-empty ingredient.
func FormatIngredients(meal Meal) string {
	ordinals := make([]int, 0, 20)
	for key := range meal {
		if !strings.HasPrefix(key, ingredientPrefix) {
			continue
		}
		k, err := strconv.Atoi(strings.TrimPrefix(key, ingredientPrefix))
		if err != nil {
			continue
		}
		ordinals = append(ordinals, k)
	}
	sort.Ints(ordinals)

	lines := make([]string, 0, len(ordinals))
	for _, k := range ordinals {
		suffix := strconv.Itoa(k)
		ingredient := strings.TrimSpace(meal.String(ingredientPrefix + suffix))
		if ingredient == "" {
			continue
		}
		measure := strings.TrimSpace(meal.String(measurePrefix + suffix))
		if measure == "" {
			lines = append(lines, ingredient)
			continue
		}
		lines = append(lines, measure+" "+ingredient)
	}
	return strings.Join(lines, "\n")
}

// SplitInstructions splits on the literal CRLF sequence and drops empty lines
func SplitInstructions(text string) []string {
	parts := strings.Split(text, instructionSeparator)
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}
