package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type seedItem struct {
	name, description, price string
	stock                    int
}

type seedCategory struct {
	name  string
	items []seedItem
}

var sampleCatalog = []seedCategory{
	{"Electronics", []seedItem{
		{"Used Circuit Board", "Pulled from a working PC build.", "$2", 40},
		{"Stripped 44 AWG Wire", "Useful for the adventurous magnetic pickup designer.", "$50", 2},
		{"CRT Monitor", "Great value for gamers interested in zero-latency performance.", "$10", 11},
	}},
	{"Kitchenware", []seedItem{
		{"Large Teaspoon", "An oversized teaspoon perfect for those who hate small teaspoons.", "$4", 30},
		{"Bent Fork", "Easier to use than a straight fork.", "$3", 22},
		{"Steak Knife", "For lovers of large meat slabs.", "$25", 9},
		{"Chipped Teapot Set", "Previously owned by a very angry prince.", "$5", 1},
		{"Cracked Plate", "Greek wedding survivor.", "$3", 1},
	}},
	{"Hardware", []seedItem{
		{"Rusty Hammer", "Will add complementary rust marks to every object it comes into contact with.", "$12", 7},
		{"'Bitten Apple' Screwdriver", "Indispensable tool for servicing a popular modern smartphone.", "$15", 99},
		{"Screw (Random gauge)", "Buy in bulk and you will never again have to worry about having the right screw size for your project.", "$1", 2000},
	}},
	{"Appliances", []seedItem{
		{"Unshielded Microwave", "Perfectly fine unless you stand in front of it.", "$70", 1},
		{"Automatic Dishwasher", "Mechanically washes the dishes for your household. Disclaimer: May scratch your glasses and crockery.", "$230", 5},
		{"Ex-German Washing Machine", "Manufactured in China to reduce costs, some of which is passed on to the consumer.", "$600", 18},
		{"Modded Sandwich Maker", "Makes a great toasted sandwich in less time than it took you to read this description.", "$20", 1},
		{"Bio-Gas Oven", "Experimental oven.", "$100", 1},
		{"4K LCD TV", "Absolutely useless 'Down Under', no matter what the marketing hype tells you.", "$1200", 12},
	}},
	{"Apparel", []seedItem{
		{"Mithril Vest", "The real deal, as seen in the LOTR movies.", "$8000", 1},
		{"Hooded Cloak", "May help you look like a Jedi.", "$180", 6},
		{"Faded Jeans", "Unisex and well worn.", "$30", 1},
	}},
	{"Musical Instruments", []seedItem{
		{"Enchanted Flute", "Donated from Neverland.", "$740", 1},
		{"'Blackie' Electric Guitar", "Eric Clapton's very own.", "$5000", 1},
	}},
	{"Furniture", []seedItem{
		{"Infested Couch", "May contain bedbugs and other nasties.", "$320", 1},
		{"Stained Antique Armchair", "A Victorian-era armchair.", "$250", 2},
	}},
	{"Medical Consumables", []seedItem{
		{"Sticky-Aid Kit", "Will aid in dressing the occasional cuts and bruises.", "$8", 12},
		{"Mentats", "A rather addictive stimulant best used in times of nuclear fallout. One pack contains 8 tablets.", "$11", 55},
	}},
	{"Food", []seedItem{
		{"Spam & Eggs", "Canned food perfect for a nuclear winter. Also great for keeping pythons happy.", "$5", 8},
		{"Bayern Bier", "Poured into a goblet, the beer offers some amazing head retention and rings of white lace sticking to the glass after each sip.", "$7", 48},
	}},
}

// Seed loads the sample catalog. Categories that already exist by name are
// skipped so the command can be re-run.
func (s *Store) Seed(ctx context.Context) (categories, items int, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, sc := range sampleCatalog {
			var existing int64
			err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, sc.name).Scan(&existing)
			if err == nil {
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}

			res, err := tx.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, sc.name)
			if err != nil {
				return fmt.Errorf("seed category %q: %w", sc.name, err)
			}
			categoryID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			categories++

			for _, si := range sc.items {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO items (name, description, price, stock, category_id) VALUES (?, ?, ?, ?, ?)`,
					si.name, si.description, si.price, si.stock, categoryID)
				if err != nil {
					return fmt.Errorf("seed item %q: %w", si.name, err)
				}
				items++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return categories, items, nil
}
